package model

import (
	"time"

	"github.com/google/uuid"
)

// InteractionEvent is one pictogram touch or phrase completion recorded by
// the child-facing client. Append-only: never updated, deleted only via
// cascading deletion of the owning child profile.
//
// Button is a symbol identifier from the pictogram vocabulary. Unknown
// tokens are tolerated — the vocabulary evolves client-side and the backend
// aggregates whatever it is given.
//
// SessionDurationSecs is present only when the client measured elapsed
// session time at the moment of the event. Absent is not zero.
type InteractionEvent struct {
	ID                  uuid.UUID `json:"id"`
	ChildID             uuid.UUID `json:"child_id"`
	Button              string    `json:"button"`
	OccurredAt          time.Time `json:"occurred_at"`
	SessionDurationSecs *int      `json:"session_duration_secs,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// InteractionInput is a single event in a batch submission.
// OccurredAt defaults to the server's current time when omitted.
type InteractionInput struct {
	Button              string     `json:"button"`
	OccurredAt          *time.Time `json:"occurred_at,omitempty"`
	SessionDurationSecs *int       `json:"session_duration_secs,omitempty"`
}
