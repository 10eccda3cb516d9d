package eventbus

import (
	"context"
	"log"

	"github.com/freightwise/cargodesk/internal/event"
)

// LogConsumer writes a one-line trace of every event. Useful on its
// own in dev and as a liveness check for the bus in production logs.
func LogConsumer() Consumer {
	return ConsumerFunc(func(_ context.Context, evt event.DomainEvent) error {
		log.Printf("event: %s %s %s", evt.EventType, evt.ResourceID, evt.Summary)
		return nil
	})
}
