package autvya

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a child's current communication development phase.
type Phase string

const (
	PhaseConnection    Phase = "CONNECTION"
	PhaseChoice        Phase = "CHOICE"
	PhaseCommunication Phase = "COMMUNICATION"
)

// User mirrors the server's caregiver account for API consumers.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	ConsentAt *time.Time `json:"consent_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Child mirrors the server's child profile.
type Child struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	Name          string         `json:"name"`
	Age           int            `json:"age"`
	Phase         Phase          `json:"phase"`
	Timezone      string         `json:"timezone"`
	SensoryConfig map[string]any `json:"sensory_config"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ChildWithCount is a child profile with its total interaction count.
type ChildWithCount struct {
	Child
	InteractionCount int64 `json:"interaction_count"`
}

// InteractionEvent is a stored button press.
type InteractionEvent struct {
	ID                  uuid.UUID `json:"id"`
	ChildID             uuid.UUID `json:"child_id"`
	Button              string    `json:"button"`
	OccurredAt          time.Time `json:"occurred_at"`
	SessionDurationSecs *int      `json:"session_duration_secs,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// InteractionInput is one event inside a batch submission.
// A nil OccurredAt lets the server assign the receive time.
type InteractionInput struct {
	Button              string     `json:"button"`
	OccurredAt          *time.Time `json:"occurred_at,omitempty"`
	SessionDurationSecs *int       `json:"session_duration_secs,omitempty"`
}

// RegisterRequest creates a new caregiver account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Consent  bool   `json:"consent"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// CreateChildRequest creates a new child profile.
type CreateChildRequest struct {
	Name          string         `json:"name"`
	Age           int            `json:"age"`
	Timezone      string         `json:"timezone,omitempty"`
	SensoryConfig map[string]any `json:"sensory_config,omitempty"`
}

// UpdateChildRequest updates a child profile. Nil fields are left unchanged.
type UpdateChildRequest struct {
	Name          *string        `json:"name,omitempty"`
	Age           *int           `json:"age,omitempty"`
	Phase         *Phase         `json:"phase,omitempty"`
	Timezone      *string        `json:"timezone,omitempty"`
	SensoryConfig map[string]any `json:"sensory_config,omitempty"`
}

// SequenceItem is one entry in a child's recent interaction sequence.
type SequenceItem struct {
	Button    string    `json:"button"`
	Timestamp time.Time `json:"timestamp"`
}

// Period describes the time window a metrics view covers.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// ChildMetrics is the aggregated usage view for one child.
type ChildMetrics struct {
	TotalInteractions  int            `json:"total_interactions"`
	ButtonCounts       map[string]int `json:"button_counts"`
	FavoriteButton     *string        `json:"favorite_button"`
	ActiveDays         int            `json:"active_days"`
	UsageByHour        [24]int        `json:"usage_by_hour"`
	UsageByWeekday     [7]int         `json:"usage_by_weekday"`
	AvgSessionDuration int            `json:"average_session_duration_secs"`
	RecentSequence     []SequenceItem `json:"recent_sequence"`
	Period             Period         `json:"period"`
}

// MetricsResponse pairs the aggregate metrics with per-day usage counts
// keyed by local date ("2006-01-02").
type MetricsResponse struct {
	Metrics    ChildMetrics   `json:"metrics"`
	DailyUsage map[string]int `json:"daily_usage"`
}

// Criteria are the thresholds for advancing to the next phase.
type Criteria struct {
	MinInteractions    int `json:"min_interactions"`
	MinActiveDays      int `json:"min_active_days"`
	MinDistinctButtons int `json:"min_distinct_buttons"`
}

// ReadinessResponse reports whether a child meets the criteria for the
// next phase. NextPhase and Criteria are nil for the terminal phase.
type ReadinessResponse struct {
	Ready     bool      `json:"ready"`
	Phase     Phase     `json:"phase"`
	NextPhase *Phase    `json:"next_phase,omitempty"`
	Criteria  *Criteria `json:"criteria,omitempty"`
}

// ReportResponse is the full caregiver report for one child.
type ReportResponse struct {
	Child        Child              `json:"child"`
	Metrics      ChildMetrics       `json:"metrics"`
	DailyUsage   map[string]int     `json:"daily_usage"`
	RecentEvents []InteractionEvent `json:"recent_events"`
}

// SummaryRow is one child's row in the account-wide summary.
type SummaryRow struct {
	Child             Child   `json:"child"`
	TotalInteractions int64   `json:"total_interactions"`
	LastWeekCount     int     `json:"last_week_count"`
	ActiveDays        int     `json:"active_days"`
	FavoriteButton    *string `json:"favorite_button"`
}

// Recommendation is one actionable suggestion inside an insight.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// TechnicalReport is the professional-facing section of an insight.
type TechnicalReport struct {
	CommunicationPattern  string `json:"communication_pattern"`
	TheoreticalReferences string `json:"theoretical_references"`
	BehavioralIndicators  string `json:"behavioral_indicators"`
}

// InsightResult is the structured analysis produced by the model.
type InsightResult struct {
	Summary         string           `json:"summary"`
	EstimatedLevel  *string          `json:"estimated_level"`
	SkillsObserved  []string         `json:"skills_observed"`
	AttentionPoints []string         `json:"attention_points"`
	Recommendations []Recommendation `json:"recommendations"`
	TechnicalReport *TechnicalReport `json:"technical_report"`
	Disclaimer      string           `json:"disclaimer"`
}

// InsightReport wraps an insight with provenance. Source is "fenced" or
// "raw_json" when the model returned structured output, "fallback" when
// the raw text had to be used as the summary.
type InsightReport struct {
	Insight     InsightResult `json:"insight"`
	Source      string        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// HealthResponse is the server health check result.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}

type batchRequest struct {
	ChildID      uuid.UUID          `json:"child_id"`
	Interactions []InteractionInput `json:"interactions"`
}

// BatchResponse reports how many events a batch submission stored.
type BatchResponse struct {
	Accepted int64 `json:"accepted"`
}
