// Package event defines the domain events emitted around wizard
// submissions and CRM activity, and the recorder that lands them in
// the audit trail before fanning them out to the in-process bus.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeJobSubmitted     = "job.submitted"
	TypeCustomerCreated  = "customer.created"
	TypeCallEntryLogged  = "call_entry.logged"
	TypeSubmissionFailed = "submission.failed"
)

// DomainEvent is one fact about the system, recorded to the audit
// trail and published to downstream consumers.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	WizardType string          `json:"wizard_type,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`

	// Recipients carries the best-effort secondary rows (participant
	// notifications) for consumers that deliver them. Their failures
	// never propagate back to the submission.
	Recipients []map[string]any `json:"recipients,omitempty"`
}

// New stamps a fresh event with an ID and occurrence time.
func New(eventType string) DomainEvent {
	return DomainEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// Submitted builds the event for a successful primary submission.
func Submitted(wizardType, resourceID string, payload map[string]any, recipients []map[string]any) DomainEvent {
	evt := New(eventTypeFor(wizardType))
	evt.WizardType = wizardType
	evt.ResourceID = resourceID
	evt.Summary = fmt.Sprintf("%s submitted as %s", wizardType, resourceID)
	evt.Recipients = recipients
	if data, err := json.Marshal(payload); err == nil {
		evt.Payload = data
	}
	return evt
}

// SubmissionFailed builds the event for a rejected primary submission.
func SubmissionFailed(wizardType string, cause error) DomainEvent {
	evt := New(TypeSubmissionFailed)
	evt.WizardType = wizardType
	evt.Summary = fmt.Sprintf("%s submission failed: %v", wizardType, cause)
	return evt
}

func eventTypeFor(wizardType string) string {
	switch wizardType {
	case "customer":
		return TypeCustomerCreated
	case "callentry":
		return TypeCallEntryLogged
	}
	return TypeJobSubmitted
}
