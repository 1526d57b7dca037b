// Package registry tracks the live connection and cached language
// preference of every authenticated participant. It is an in-memory,
// process-wide table rebuilt from scratch on restart; participants
// re-register when they reconnect.
package registry

import (
	"errors"
	"sync"

	"github.com/jcnm/meeshy-sub009/translation"
)

// ErrNotRegistered is returned when an operation targets an identity with
// no live entry.
var ErrNotRegistered = errors.New("registry: identity not registered")

// Channel is a participant's outbound live connection. Deliver must not
// block: implementations enqueue and report whether the frame was
// accepted, and a slow or dead recipient never stalls a fan-out.
type Channel interface {
	Deliver(payload []byte) bool
}

// Participant is one live conversation member.
type Participant struct {
	Identity   string
	Channel    Channel
	Preference translation.LanguagePreference
}

// Registry is the connection table. All operations are synchronous and
// safe for concurrent use; a fan-out racing an unregister simply misses
// its lookup.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{participants: make(map[string]Participant)}
}

// Register adds or replaces the live entry for identity and returns the
// channel it displaced, if any. A replaced channel is logically
// disconnected; the caller decides whether to close it.
func (r *Registry) Register(identity string, ch Channel, pref translation.LanguagePreference) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed := r.participants[identity]
	r.participants[identity] = Participant{Identity: identity, Channel: ch, Preference: pref}
	if !existed {
		return nil
	}
	return prev.Channel
}

// Unregister removes the entry for identity. Removing an absent identity
// is a no-op.
func (r *Registry) Unregister(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, identity)
}

// UnregisterChannel removes the entry for identity only if it still maps
// to ch. A connection tearing down uses this so it never evicts the
// replacement that displaced it.
func (r *Registry) UnregisterChannel(identity string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.participants[identity]
	if !ok || current.Channel != ch {
		return false
	}
	delete(r.participants, identity)
	return true
}

// UpdatePreference replaces the cached language preference for identity.
func (r *Registry) UpdatePreference(identity string, pref translation.LanguagePreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[identity]
	if !ok {
		return ErrNotRegistered
	}
	p.Preference = pref
	r.participants[identity] = p
	return nil
}

// Get returns a copy of the live entry for identity.
func (r *Registry) Get(identity string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[identity]
	return p, ok
}

// Snapshot returns copies of the live entries among identities, in input
// order. Identities with no live entry are simply absent from the result.
func (r *Registry) Snapshot(identities []string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(identities))
	for _, id := range identities {
		if p, ok := r.participants[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}
