// Package session implements the Client state machine and its fixed-
// capacity registry.
package session

import "time"

// State is the client's lifecycle state.
type State int

const (
	Connected State = iota
	Auth
	InLobby
	Ready
	Playing
)

func (s State) String() string {
	switch s {
	case Connected:
		return "CONNECTED"
	case Auth:
		return "AUTH"
	case InLobby:
		return "IN_LOBBY"
	case Ready:
		return "READY"
	case Playing:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// Heartbeat is the liveness tracked by the supervisor.
type Heartbeat int

const (
	Live Heartbeat = iota
	Soft
	Hard
)

func (h Heartbeat) String() string {
	switch h {
	case Live:
		return "LIVE"
	case Soft:
		return "SOFT"
	case Hard:
		return "HARD"
	default:
		return "UNKNOWN"
	}
}

// NoRoom is the sentinel room id meaning "not occupying a room".
const NoRoom uint32 = 0

// Conn is the connection-worker side of a Client: the handful of
// operations the core needs from a live socket. Implemented by the
// connection worker; a fake implementation backs tests.
type Conn interface {
	// Send writes one complete framed line to the client.
	Send(line string) error
	// CloseRead force-closes the read half so a blocked worker unblocks.
	CloseRead() error
	// Close tears down the connection entirely.
	Close() error
}

// Client is one connected session.
type Client struct {
	FD     uint64
	Nick   string
	Token  string
	State  State
	RoomID uint32 // NoRoom when not occupying a room

	LastSeen     time.Time
	LastPingSent time.Time
	Heartbeat    Heartbeat

	// Replaced is set when a new connection has adopted this session
	// via RECONNECT; the old worker's terminal cleanup becomes a no-op.
	Replaced bool

	InvalidStreak int

	Conn Conn
}

// New creates a Client in state Connected for a freshly accepted
// connection, identified by fd.
func New(fd uint64, conn Conn, now time.Time) *Client {
	return &Client{
		FD:           fd,
		State:        Connected,
		RoomID:       NoRoom,
		LastSeen:     now,
		LastPingSent: now,
		Heartbeat:    Live,
		Conn:         conn,
	}
}

// InRoom reports whether the client currently occupies a room.
func (c *Client) InRoom() bool {
	return c.RoomID != NoRoom
}
