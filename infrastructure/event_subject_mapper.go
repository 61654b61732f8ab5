package infrastructure

import (
	"fmt"

	"prizewheel/events"
)

// Subjects under the prize wheel stream
const (
	SubjectPrizeClaimed          = "prizewheel.claims.granted"
	SubjectParticipantRegistered = "prizewheel.participants.registered"
)

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePrizeClaimed:
		return SubjectPrizeClaimed
	case events.EventTypeParticipantRegistered:
		return SubjectParticipantRegistered
	default:
		return fmt.Sprintf("prizewheel.unknown.%s", event.Type())
	}
}
