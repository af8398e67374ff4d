package room

import (
	"errors"

	"github.com/kaerast/rpsd/internal/session"
)

// ErrFull is returned by Create when the registry is at capacity.
var ErrFull = errors.New("room: registry full")

// ErrNotOpen is returned by AddPlayer when the room cannot accept a
// new occupant.
var ErrNotOpen = errors.New("room: not open")

// Registry is the fixed-capacity room table: up to
// Capacity rooms, looked up by id or occupant via linear scan.
//
// Every method assumes the caller already holds the engine's single
// global lock; rooms are only ever touched from inside a dispatcher
// handler or the supervisor tick.
type Registry struct {
	slots    []*Room
	capacity int
	nextID   uint32
}

// NewRegistry creates an empty Registry of the given capacity.
func NewRegistry(capacity int) *Registry {
	return &Registry{slots: make([]*Room, capacity), capacity: capacity, nextID: 1}
}

// Create allocates a room in the first empty slot, state Open, with a
// monotonically assigned id.
func (reg *Registry) Create(name string) (*Room, error) {
	for i, slot := range reg.slots {
		if slot == nil {
			r := &Room{ID: reg.nextID, Name: name, State: Open}
			reg.nextID++
			reg.slots[i] = r
			return r, nil
		}
	}
	return nil, ErrFull
}

// FindByID returns the room with the given id, or nil.
func (reg *Registry) FindByID(id uint32) *Room {
	if id == 0 {
		return nil
	}
	for _, slot := range reg.slots {
		if slot != nil && slot.ID == id {
			return slot
		}
	}
	return nil
}

// FindByPlayer returns the room occupied by c, or nil.
func (reg *Registry) FindByPlayer(c *session.Client) *Room {
	for _, slot := range reg.slots {
		if slot != nil && slot.Has(c) {
			return slot
		}
	}
	return nil
}

// AddPlayer assigns c to r: P1 if absent, else P2. Transitions
// Open -> Full on the second join, and sets c's room_id/state.
func (reg *Registry) AddPlayer(c *session.Client, r *Room) error {
	switch {
	case r.P1 == nil:
		r.P1 = c
	case r.P2 == nil:
		r.P2 = c
	default:
		return ErrNotOpen
	}
	r.PlayerCount++
	if r.PlayerCount == 2 {
		r.State = Full
	}
	c.RoomID = r.ID
	c.State = session.InLobby
	return nil
}

// RemovePlayer removes c from r. If one player remains, it is
// canonicalised into the P1 slot and the room returns to Open; notify
// is invoked with the remaining player, if any remains.
func (reg *Registry) RemovePlayer(c *session.Client, r *Room, notify func(remaining *session.Client)) {
	switch c {
	case r.P1:
		r.P1 = nil
	case r.P2:
		r.P2 = nil
	default:
		return
	}
	r.PlayerCount--

	if r.PlayerCount == 1 {
		if r.P1 == nil {
			r.P1, r.P2 = r.P2, nil
		}
		r.State = Open
		if notify != nil {
			notify(r.P1)
		}
	} else if r.PlayerCount == 0 {
		r.State = Open
	}
}

// RemoveRoom clears the slot holding r.
func (reg *Registry) RemoveRoom(r *Room) {
	for i, slot := range reg.slots {
		if slot == r {
			reg.slots[i] = nil
			return
		}
	}
}

// ForEach calls fn for every allocated room, in table order.
func (reg *Registry) ForEach(fn func(*Room)) {
	for _, slot := range reg.slots {
		if slot != nil {
			fn(slot)
		}
	}
}

// Count returns the number of allocated rooms.
func (reg *Registry) Count() int {
	n := 0
	for _, slot := range reg.slots {
		if slot != nil {
			n++
		}
	}
	return n
}
