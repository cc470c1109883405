package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits for caller-supplied strings. These bound what flows into
// Postgres TEXT columns and the insight prompt.
const (
	MaxNameLen     = 120
	MaxButtonLen   = 80
	MaxEmailLen    = 254
	MaxBatchEvents = 500
	MaxChildAge    = 18
)

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeUnprocessable = "UNPROCESSABLE"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Consent  bool   `json:"consent"`
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the response for registration and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// CreateChildRequest is the request body for POST /v1/children.
type CreateChildRequest struct {
	Name          string         `json:"name"`
	Age           int            `json:"age"`
	Timezone      string         `json:"timezone,omitempty"`
	SensoryConfig map[string]any `json:"sensory_config,omitempty"`
}

// UpdateChildRequest is the request body for PATCH /v1/children/{child_id}.
// Nil fields are left unchanged.
type UpdateChildRequest struct {
	Name          *string        `json:"name,omitempty"`
	Age           *int           `json:"age,omitempty"`
	Phase         *Phase         `json:"phase,omitempty"`
	Timezone      *string        `json:"timezone,omitempty"`
	SensoryConfig map[string]any `json:"sensory_config,omitempty"`
}

// CreateInteractionRequest is the request body for POST /v1/interactions.
type CreateInteractionRequest struct {
	ChildID             uuid.UUID `json:"child_id"`
	Button              string    `json:"button"`
	SessionDurationSecs *int      `json:"session_duration_secs,omitempty"`
}

// BatchInteractionsRequest is the request body for POST /v1/interactions/batch.
type BatchInteractionsRequest struct {
	ChildID      uuid.UUID          `json:"child_id"`
	Interactions []InteractionInput `json:"interactions"`
}

// BatchInteractionsResponse reports how many events a batch submission stored.
type BatchInteractionsResponse struct {
	Accepted int64 `json:"accepted"`
}

// GenerateInsightRequest is the request body for POST /v1/insights.
type GenerateInsightRequest struct {
	ChildID uuid.UUID `json:"child_id"`
	Days    int       `json:"days,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}

// ValidateRegister checks a registration request.
// Consent is a hard legal requirement (LGPD): no account without it.
func ValidateRegister(req RegisterRequest) error {
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLen {
		return fmt.Errorf("name exceeds maximum length of %d characters", MaxNameLen)
	}
	if !req.Consent {
		return fmt.Errorf("consent is required")
	}
	return nil
}

// ValidateEmail performs a minimal structural check. Real validation is the
// mail exchanger's job; this only rejects obviously malformed input.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLen {
		return fmt.Errorf("email exceeds maximum length of %d characters", MaxEmailLen)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateCreateChild checks a child creation request.
func ValidateCreateChild(req CreateChildRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLen {
		return fmt.Errorf("name exceeds maximum length of %d characters", MaxNameLen)
	}
	if req.Age < 0 || req.Age > MaxChildAge {
		return fmt.Errorf("age must be between 0 and %d", MaxChildAge)
	}
	if req.Timezone != "" {
		if err := ValidateTimezone(req.Timezone); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTimezone rejects names that time.LoadLocation cannot resolve.
func ValidateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("invalid timezone: %s", name)
	}
	return nil
}

// ValidateButton rejects empty or oversized symbol identifiers. Unknown
// tokens are deliberately accepted — the vocabulary is owned client-side.
func ValidateButton(button string) error {
	if button == "" {
		return fmt.Errorf("button is required")
	}
	if len(button) > MaxButtonLen {
		return fmt.Errorf("button exceeds maximum length of %d characters", MaxButtonLen)
	}
	return nil
}
