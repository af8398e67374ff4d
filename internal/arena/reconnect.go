package arena

import (
	"strconv"

	"github.com/kaerast/rpsd/internal/room"
	"github.com/kaerast/rpsd/internal/session"
)

// handleReconnect implements RECONNECT <token>. On
// refusal the new connection is marked for immediate closure rather
// than merely counted against invalid_streak: a stale or absent
// token isn't something a retry on the same connection can fix.
func (e *Engine) handleReconnect(c *session.Client, arg string) result {
	if c.State != session.Connected {
		return fail(invalidState())
	}
	if arg == "" {
		return fail(badFormat("missing_token"))
	}

	old := e.clients.FindByToken(arg)
	if old == nil || old.Heartbeat != session.Soft {
		e.met.ReconnectRejected()
		return result{perr: ptr(cannotReconnectNow()), closeAfter: true}
	}

	e.adopt(c, old)
	e.met.ReconnectAccepted()
	return ok()
}

func ptr(e protoErr) *protoErr { return &e }

// adopt transfers old's identity onto c (the newly connected client),
// rewrites any room back-reference, acknowledges per the adopted
// state, and releases old.
func (e *Engine) adopt(c, old *session.Client) {
	c.Nick = old.Nick
	c.Token = old.Token
	c.State = old.State
	c.RoomID = old.RoomID
	c.InvalidStreak = old.InvalidStreak
	c.Heartbeat = session.Live
	c.LastSeen = e.clock.Now()
	old.Replaced = true

	var r *room.Room
	if c.InRoom() {
		r = e.rooms.FindByID(c.RoomID)
		if r != nil {
			if r.P1 == old {
				r.P1 = c
			}
			if r.P2 == old {
				r.P2 = c
			}
		}
	}

	switch c.State {
	case session.Auth:
		e.send(c, "REC_OK C")
		for _, line := range e.listLines() {
			e.send(c, line)
		}
	case session.InLobby, session.Ready:
		e.send(c, "REC_OK L")
	case session.Playing:
		e.resumeMatch(c, r)
	default:
		e.send(c, "REC_OK C")
	}

	e.clients.Unregister(old)
}

// resumeMatch handles reconnect adoption into a Playing client: the
// room resumes (it was Paused while c's predecessor was Soft), and
// both players are told where the round stands.
func (e *Engine) resumeMatch(c *session.Client, r *room.Room) {
	if r == nil {
		return
	}
	r.State = room.Playing
	r.AwaitingMoves = true
	r.RoundStartTime = e.clock.Now()

	ownMarker := reconnectMarker(r.MoveOf(c))
	e.send(c, "REC_OK G "+strconv.Itoa(r.ScoreP1)+" "+strconv.Itoa(r.ScoreP2)+" "+strconv.Itoa(r.RoundNumber)+" "+ownMarker)

	if opp := r.Opponent(c); opp != nil {
		e.send(opp, "G_RES "+strconv.Itoa(r.RoundNumber)+" "+strconv.Itoa(r.ScoreP1)+" "+strconv.Itoa(r.ScoreP2)+" "+ownMarker)
	}
}

// reconnectMarker reports whether a move was already recorded this
// round, without revealing its value.
func reconnectMarker(m room.Move) string {
	if m == room.NoMove {
		return "0"
	}
	return "X"
}
