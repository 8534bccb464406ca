// Package registry maintains the set of active subscriptions, keyed by
// session and subscription id (§4.3).
package registry

import (
	"sync"

	"github.com/samber/lo"

	"stompbroker/internal/destmatch"
)

// Subscription is a single session's standing request to receive
// messages for destinations matching Topic.
type Subscription struct {
	ID        string
	SessionID string
	Topic     string
	Tokens    []string
}

// NewSubscription tokenizes topic and builds a Subscription.
func NewSubscription(id, sessionID, topic string) *Subscription {
	return &Subscription{
		ID:        id,
		SessionID: sessionID,
		Topic:     topic,
		Tokens:    destmatch.Tokenize(topic),
	}
}

// Registry is the broker-wide, concurrency-safe collection of active
// subscriptions. It is the only structure shared across sessions (§5).
type Registry struct {
	mu   sync.RWMutex
	subs []*Subscription
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add appends a subscription.
func (r *Registry) Add(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, sub)
}

// Remove deletes the first subscription matching (sessionID, id) and
// reports whether one was removed.
func (r *Registry) Remove(sessionID, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.SessionID == sessionID && s.ID == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll drops every subscription belonging to sessionID. Used on
// session teardown (§4.6).
func (r *Registry) RemoveAll(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = lo.Filter(r.subs, func(s *Subscription, _ int) bool {
		return s.SessionID != sessionID
	})
}

// Has reports whether (sessionID, id) is already registered, used by
// SUBSCRIBE to reject duplicate subscription ids (§4.5).
func (r *Registry) Has(sessionID, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.subs {
		if s.SessionID == sessionID && s.ID == id {
			return true
		}
	}
	return false
}

// Snapshot returns a stable, independent copy of the active
// subscriptions, suitable for fan-out iteration without holding the
// registry lock across a transport write (§5).
func (r *Registry) Snapshot() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

// Matching filters a snapshot down to the subscriptions whose tokens
// match pubTokens and whose session is not excludeSessionID (the
// publisher never receives its own message, §4.5).
func Matching(snapshot []*Subscription, pubTokens []string, excludeSessionID string) []*Subscription {
	return lo.Filter(snapshot, func(s *Subscription, _ int) bool {
		if s.SessionID == excludeSessionID {
			return false
		}
		return destmatch.Matches(s.Tokens, pubTokens)
	})
}

// Len reports the number of active subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
