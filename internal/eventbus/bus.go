// Package eventbus provides an in-process pub/sub bus for domain
// events. Submission handlers publish after the primary call commits;
// consumers (audit logging, participant notification) run off the
// request path in a single consumer goroutine.
package eventbus

import (
	"context"
	"log"
	"sync"

	"github.com/freightwise/cargodesk/internal/event"
)

// Consumer processes a domain event. Implementations must tolerate
// concurrent calls from different goroutines.
type Consumer interface {
	Consume(ctx context.Context, evt event.DomainEvent) error
}

// ConsumerFunc adapts a plain function to the Consumer interface.
type ConsumerFunc func(ctx context.Context, evt event.DomainEvent) error

func (f ConsumerFunc) Consume(ctx context.Context, evt event.DomainEvent) error {
	return f(ctx, evt)
}

// Bus is a buffered in-process event bus. A single dispatch goroutine
// serialises consumer execution, which keeps SQLite writes from the
// audit consumer single-writer.
type Bus struct {
	mu        sync.RWMutex
	consumers []namedConsumer
	events    chan event.DomainEvent
	done      chan struct{}
}

type namedConsumer struct {
	name     string
	consumer Consumer
}

// New creates a Bus with the given buffer size.
func New(bufSize int) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan event.DomainEvent, bufSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named consumer. Call before Start.
func (b *Bus) Subscribe(name string, c Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers = append(b.consumers, namedConsumer{name: name, consumer: c})
}

// Publish enqueues an event without blocking. A full buffer drops the
// event with a warning — event delivery is best-effort by design.
func (b *Bus) Publish(_ context.Context, evt event.DomainEvent) {
	select {
	case b.events <- evt:
	default:
		log.Printf("eventbus: buffer full, dropping %s (%s)", evt.EventType, evt.ID)
	}
}

// Start launches the dispatch goroutine. It runs until the context is
// cancelled, draining whatever is already queued before exiting.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt := <-b.events:
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				for {
					select {
					case evt := <-b.events:
						b.dispatch(ctx, evt)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the dispatch goroutine has exited.
func (b *Bus) Wait() { <-b.done }

func (b *Bus) dispatch(ctx context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	consumers := b.consumers
	b.mu.RUnlock()
	for _, c := range consumers {
		if err := c.consumer.Consume(ctx, evt); err != nil {
			log.Printf("eventbus: %s consumer error for %s: %v", c.name, evt.EventType, err)
		}
	}
}
