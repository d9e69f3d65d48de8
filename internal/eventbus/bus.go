// Package eventbus provides an in-process pub/sub bus for table state
// events. The store publishes after every completed fetch or row action;
// subscribers (UI bindings, audit logging) process them asynchronously.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType classifies a table state change.
type EventType string

const (
	DataLoaded   EventType = "data_loaded"
	RowDeleted   EventType = "row_deleted"
	RowRestored  EventType = "row_restored"
	BulkAction   EventType = "bulk_action"
	FetchFailed  EventType = "fetch_failed"
	FilterChange EventType = "filter_change"
)

// Event is one table state change.
type Event struct {
	Type       EventType
	Table      string
	RowIDs     []string
	TotalItems int
	Error      string
	OccurredAt time.Time
}

// Publisher is the sending side of the bus; *Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Handler processes a table event. Implementations must be safe for
// concurrent calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Bus is a simple in-process event bus. Events are published to a buffered
// channel and dispatched to all subscribers in a single consumer goroutine,
// so subscribers never observe two events out of order.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan Event
	done        chan struct{}
	log         logrus.FieldLogger
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a new Bus with the given channel buffer size.
func New(bufSize int, log logrus.FieldLogger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish sends an event to the bus. Non-blocking; if the buffer is full
// the event is dropped and a warning is logged.
func (b *Bus) Publish(_ context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	select {
	case b.events <- evt:
	default:
		b.log.WithFields(logrus.Fields{
			"type":  evt.Type,
			"table": evt.Table,
		}).Warn("event buffer full, dropping event")
	}
}

// Start begins the consumer goroutine. It processes events until the
// context is cancelled.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt := <-b.events:
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				// Drain remaining events before exiting.
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

// Stop waits for the consumer goroutine to finish.
func (b *Bus) Stop() {
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"subscriber": s.name,
				"type":       evt.Type,
			}).Warn("event handler failed")
		}
	}
}
