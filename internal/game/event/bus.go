package event

import (
	"fmt"
	"sync"
)

// Handler receives a validated payload. Handlers run synchronously on the
// publishing goroutine; they must not block and must not call Publish
// re-entrantly for lifecycle events (the scheduler owns that ordering).
type Handler func(Payload)

// Bus is a synchronous publish/subscribe dispatcher with contract
// enforcement. Events are delivered in subscription order on the caller's
// goroutine; there is no fan-out concurrency, so the emission order of
// lifecycle events is preserved by construction.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
}

// NewBus creates an empty Bus.
//
// Postcondition: Returns a non-nil Bus ready for Subscribe and Publish.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers fn for events of type t.
//
// Precondition: t must be a known event type; fn must be non-nil.
// Postcondition: fn is invoked for every subsequent valid publish of t.
func (b *Bus) Subscribe(t Type, fn Handler) error {
	if !Known(t) {
		return fmt.Errorf("event: subscribing to unknown type %q", t)
	}
	if fn == nil {
		return fmt.Errorf("event: nil handler for type %q", t)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], fn)
	return nil
}

// SubscribeAll registers fn for every event type. Catch-all handlers run
// after type-specific handlers for each publish.
//
// Precondition: fn must be non-nil.
func (b *Bus) SubscribeAll(fn Handler) error {
	if fn == nil {
		return fmt.Errorf("event: nil catch-all handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
	return nil
}

// Publish validates p and delivers it to all matching subscribers.
// A payload that fails validation is rejected before any subscriber sees it.
//
// Precondition: p must be non-nil.
// Postcondition: On nil return, every subscriber for p.Type() plus every
// catch-all subscriber has been invoked exactly once, in subscription order.
// On error return, no subscriber has been invoked.
func (b *Bus) Publish(p Payload) error {
	if p == nil {
		return fmt.Errorf("event: publishing nil payload")
	}
	t := p.Type()
	if !Known(t) {
		return fmt.Errorf("event: publishing unknown type %q", t)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("event: %s payload rejected: %w", t, err)
	}

	b.mu.RLock()
	typed := b.handlers[t]
	all := b.all
	b.mu.RUnlock()

	for _, fn := range typed {
		fn(p)
	}
	for _, fn := range all {
		fn(p)
	}
	return nil
}
