// Package middleware implements the onion-model interceptor chain that
// wraps each STOMP command handler (§4.4).
package middleware

import (
	"reflect"
	"sync"
)

// Command names the five intercepted STOMP commands.
type Command string

const (
	Connect     Command = "connect"
	Disconnect  Command = "disconnect"
	Send        Command = "send"
	Subscribe   Command = "subscribe"
	Unsubscribe Command = "unsubscribe"
)

// Session is the minimal view of a session an interceptor needs. The
// concrete session type (package session) satisfies this.
type Session interface {
	ID() string
}

// Next continues the chain. An interceptor that returns nil without
// calling Next aborts the command silently (§7, HandlerRejection) — the
// terminal handler never runs, and no error is raised either.
type Next func() error

// Interceptor observes, modifies, or rejects a command in flight.
type Interceptor func(sess Session, args interface{}, next Next) error

// Terminal is the fixed handler invoked at the end of a command's
// chain, once every interceptor has called Next.
type Terminal func(sess Session, args interface{}) error

// Pipeline holds the ordered interceptor list for each command.
type Pipeline struct {
	mu    sync.RWMutex
	chain map[Command][]Interceptor
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{chain: make(map[Command][]Interceptor)}
}

// Add appends an interceptor to command's chain.
func (p *Pipeline) Add(command Command, interceptor Interceptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chain[command] = append(p.chain[command], interceptor)
}

// Set replaces command's entire chain with the single interceptor.
func (p *Pipeline) Set(command Command, interceptor Interceptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chain[command] = []Interceptor{interceptor}
}

// Remove deletes the first interceptor in command's chain that was
// registered with the same function value as interceptor.
func (p *Pipeline) Remove(command Command, interceptor Interceptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := reflect.ValueOf(interceptor).Pointer()
	list := p.chain[command]
	for i, existing := range list {
		if reflect.ValueOf(existing).Pointer() == target {
			p.chain[command] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Run executes command's interceptor chain around terminal, in onion
// order: the first-registered interceptor is outermost. If any
// interceptor declines to call next, terminal never runs and Run
// returns whatever that interceptor returned: nil for a silent
// rejection (HandlerRejection, §7), or its error.
func (p *Pipeline) Run(command Command, sess Session, args interface{}, terminal Terminal) error {
	p.mu.RLock()
	list := append([]Interceptor(nil), p.chain[command]...)
	p.mu.RUnlock()

	next := func() error { return terminal(sess, args) }
	// Fold right: wrap from the last interceptor inward so the first
	// registered interceptor ends up outermost.
	for i := len(list) - 1; i >= 0; i-- {
		interceptor := list[i]
		prevNext := next
		next = func() error { return interceptor(sess, args, prevNext) }
	}
	return next()
}
