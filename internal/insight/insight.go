// Package insight builds the analysis prompt sent to the language model
// and parses the model's reply into a structured report for caregivers.
//
// The builder and parser are deterministic and side-effect free; the only
// network component is the Generator implementation.
package insight

import "time"

// Disclaimer is the fixed cautionary note attached to every report the
// parser synthesizes itself. Model-produced reports carry their own copy.
const Disclaimer = "Esta análise baseia-se em padrões de uso da plataforma e não constitui diagnóstico clínico. Consulte sempre profissionais especializados."

// Recommendation category values the model is instructed to use.
const (
	CategoryCommunication = "communication"
	CategoryRoutine       = "routine"
	CategorySensory       = "sensory"
	CategorySocial        = "social"
)

// InsightResult is the structured developmental report.
type InsightResult struct {
	Summary         string           `json:"summary"`
	EstimatedLevel  *string          `json:"estimated_level"`
	SkillsObserved  []string         `json:"skills_observed"`
	AttentionPoints []string         `json:"attention_points"`
	Recommendations []Recommendation `json:"recommendations"`
	TechnicalReport *TechnicalReport `json:"technical_report"`
	Disclaimer      string           `json:"disclaimer"`
}

// Recommendation is one actionable suggestion for caregivers.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// TechnicalReport is the professional-facing section of the report.
type TechnicalReport struct {
	CommunicationPattern  string `json:"communication_pattern"`
	TheoreticalReferences string `json:"theoretical_references"`
	BehavioralIndicators  string `json:"behavioral_indicators"`
}

// Report pairs a parsed result with how it was obtained.
type Report struct {
	Insight     InsightResult `json:"insight"`
	Source      Source        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
}
