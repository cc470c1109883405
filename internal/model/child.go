// Package model defines the core domain types for AuTvya.
//
// Types correspond directly to database tables and API payloads.
// Derived values (metrics, readiness, insights) live in their own
// packages and are never persisted.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a child's current communication phase.
// Ordering is fixed: Connection < Choice < Communication.
// Advancement is never automatic — callers change the phase explicitly
// after the readiness evaluator signals eligibility.
type Phase string

const (
	PhaseConnection    Phase = "CONNECTION"
	PhaseChoice        Phase = "CHOICE"
	PhaseCommunication Phase = "COMMUNICATION"
)

// ValidPhase reports whether p is one of the three known phases.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseConnection, PhaseChoice, PhaseCommunication:
		return true
	}
	return false
}

// User is a caregiver account. Owns zero or more child profiles.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	ConsentAt    *time.Time `json:"consent_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Child is a child profile owned by a caregiver.
//
// Timezone holds an IANA zone name used for all day/hour bucketing of this
// child's interactions. SensoryConfig is an opaque scalar map configured by
// the caregiver; it is passed through verbatim into the insight prompt and
// never interpreted by the backend.
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

// Location resolves the child's stored timezone, falling back to UTC when
// the name is empty or not a valid IANA zone. Bucketing must apply one
// consistent location per child, so the fallback is silent by design of
// the API layer (invalid names are rejected at write time).
func (c Child) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ChildWithCount pairs a child with its total interaction count for list views.
type ChildWithCount struct {
	Child
	InteractionCount int64 `json:"interaction_count"`
}
