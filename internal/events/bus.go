// Package events implements the host-facing EventBus the broker façade
// uses to emit connecting/connected/disconnected/subscribe/unsubscribe/
// send/error/delivery events (§9).
package events

import (
	"reflect"
	"sync"
)

// Handler receives the positional arguments passed to Emit.
type Handler func(args ...interface{})

// Bus is a minimal named publish/subscribe hub: On registers a handler
// for a name, Off removes it, Emit invokes every handler registered for
// that name synchronously in registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// On registers handler for name.
func (b *Bus) On(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Off removes every handler registered for name with the same function
// value as handler.
func (b *Bus) Off(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := reflect.ValueOf(handler).Pointer()
	list := b.handlers[name]
	out := list[:0]
	for _, h := range list {
		if reflect.ValueOf(h).Pointer() != target {
			out = append(out, h)
		}
	}
	b.handlers[name] = out
}

// OffAll removes every handler registered for name, regardless of
// identity. Used when a subscription is torn down and its per-id event
// name should stop firing entirely (§4.8).
func (b *Bus) OffAll(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, name)
}

// Emit invokes every handler registered for name, in registration
// order, with a stable snapshot of the handler list so a handler
// registering or removing another handler mid-emit cannot deadlock or
// skip entries.
func (b *Bus) Emit(name string, args ...interface{}) {
	b.mu.RLock()
	list := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	for _, h := range list {
		h(args...)
	}
}
