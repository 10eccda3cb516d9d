package event

import (
	"context"

	"github.com/freightwise/cargodesk/internal/types"
)

// Recorder writes domain events somewhere durable.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// AuditAppender is the slice of the store the recorder needs.
type AuditAppender interface {
	AppendAudit(ctx context.Context, e types.AuditEntry) error
}

// AuditRecorder implements Recorder by appending one audit entry per
// event, then publishing to the bus. Publication happens only after
// the audit write succeeds.
type AuditRecorder struct {
	sink AuditAppender
	bus  Publisher
}

// NewAuditRecorder creates a recorder backed by the given audit sink.
func NewAuditRecorder(sink AuditAppender) *AuditRecorder {
	return &AuditRecorder{sink: sink}
}

// SetPublisher attaches an event bus.
func (r *AuditRecorder) SetPublisher(p Publisher) { r.bus = p }

// Record appends the event to the audit trail and publishes it.
func (r *AuditRecorder) Record(ctx context.Context, evt DomainEvent) error {
	entry := types.AuditEntry{
		EventID:    evt.ID,
		EventType:  evt.EventType,
		OccurredAt: evt.OccurredAt,
		WizardType: evt.WizardType,
		ResourceID: evt.ResourceID,
		Summary:    evt.Summary,
		Payload:    evt.Payload,
	}
	if err := r.sink.AppendAudit(ctx, entry); err != nil {
		return err
	}
	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return nil
}
