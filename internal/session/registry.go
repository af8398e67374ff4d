package session

import (
	"errors"
	"sync"
)

// ErrFull is returned by Register when the registry is at capacity.
var ErrFull = errors.New("session: registry full")

// Registry is the fixed-capacity client table: up to
// Capacity live clients, looked up by fd, nickname, or token via
// linear scan.
//
// Register is the one operation that acquires mu itself, so a
// connection worker can call it before the engine's handler loop has
// touched this connection. Every other method assumes the caller
// already holds mu (the engine's single global lock).
type Registry struct {
	mu       *sync.Mutex
	slots    []*Client
	capacity int
}

// NewRegistry creates a Registry of the given capacity, sharing mu with
// whatever else (rooms, match state) the engine serializes through.
func NewRegistry(mu *sync.Mutex, capacity int) *Registry {
	return &Registry{mu: mu, slots: make([]*Client, capacity), capacity: capacity}
}

// Register inserts c into the first free slot. Acquires the lock itself.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, slot := range r.slots {
		if slot == nil {
			r.slots[i] = c
			return nil
		}
	}
	return ErrFull
}

// Unregister clears the slot holding c, if present. Caller must hold mu.
func (r *Registry) Unregister(c *Client) {
	for i, slot := range r.slots {
		if slot == c {
			r.slots[i] = nil
			return
		}
	}
}

// FindByFD returns the client with the given fd, or nil. Caller must hold mu.
func (r *Registry) FindByFD(fd uint64) *Client {
	for _, slot := range r.slots {
		if slot != nil && slot.FD == fd {
			return slot
		}
	}
	return nil
}

// FindByName returns the client with the given nickname, or nil.
// Caller must hold mu.
func (r *Registry) FindByName(nick string) *Client {
	if nick == "" {
		return nil
	}
	for _, slot := range r.slots {
		if slot != nil && slot.Nick == nick {
			return slot
		}
	}
	return nil
}

// FindByToken returns the client holding the given token, or nil.
// Ignores empty tokens. Caller must hold mu.
func (r *Registry) FindByToken(token string) *Client {
	if token == "" {
		return nil
	}
	for _, slot := range r.slots {
		if slot != nil && slot.Token == token {
			return slot
		}
	}
	return nil
}

// Count returns the number of registered clients. Caller must hold mu.
func (r *Registry) Count() int {
	n := 0
	for _, slot := range r.slots {
		if slot != nil {
			n++
		}
	}
	return n
}

// ForEach calls fn for every registered client. Caller must hold mu.
// fn must not mutate the registry.
func (r *Registry) ForEach(fn func(*Client)) {
	for _, slot := range r.slots {
		if slot != nil {
			fn(slot)
		}
	}
}
