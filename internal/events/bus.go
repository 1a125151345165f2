package events

import (
	"context"
	"sync"

	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// Handler receives published envelopes. Handlers run synchronously on the
// publishing goroutine and must not block for long.
type Handler interface {
	Handle(ctx context.Context, env Envelope)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env Envelope)

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) { f(ctx, env) }

// Bus is an in-process fan-out of booking events.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	logger   *logging.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bus{handlers: make(map[int]Handler), logger: logger}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers env to every subscriber.
func (b *Bus) Publish(ctx context.Context, env Envelope) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h.Handle(ctx, env)
	}
}

// BookingChanged wraps the change in an envelope and publishes it.
func (b *Bus) BookingChanged(ctx context.Context, change ledger.Change) {
	env, err := NewEnvelope("slot:"+change.Booking.Key.String(), BookingChangedFrom(change))
	if err != nil {
		b.logger.Error("failed to build booking event", "slot", change.Booking.Key.String(), "error", err)
		return
	}
	b.Publish(ctx, env)
}
