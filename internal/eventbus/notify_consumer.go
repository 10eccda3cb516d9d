package eventbus

import (
	"context"
	"log"
	"sync"

	"github.com/freightwise/cargodesk/internal/event"
)

// Notifier delivers one secondary notification, e.g. a participant
// email for a logged call entry.
type Notifier interface {
	Notify(ctx context.Context, wizardType, resourceID string, recipient map[string]any) error
}

// NotifyConsumer fans each event's recipients out as independent
// concurrent notifications. Delivery is best-effort: each failure is
// logged and isolated, nothing is retried, and nothing propagates back
// to the submission that produced the event.
func NotifyConsumer(n Notifier) Consumer {
	return ConsumerFunc(func(ctx context.Context, evt event.DomainEvent) error {
		if len(evt.Recipients) == 0 {
			return nil
		}
		var wg sync.WaitGroup
		for _, recipient := range evt.Recipients {
			wg.Add(1)
			go func(r map[string]any) {
				defer wg.Done()
				if err := n.Notify(ctx, evt.WizardType, evt.ResourceID, r); err != nil {
					log.Printf("notify: %s recipient %v: %v", evt.EventType, r["email"], err)
				}
			}(recipient)
		}
		wg.Wait()
		return nil
	})
}
