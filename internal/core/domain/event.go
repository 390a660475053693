package domain

import "time"

// EventUserRegistered is the only live-update event the auth core emits.
const EventUserRegistered = "user.registered"

// Event is a message broadcast on the live-update channel.
type Event struct {
	Type      string    `json:"type"`
	SubjectID string    `json:"subject_id"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}
