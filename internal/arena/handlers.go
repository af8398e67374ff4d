package arena

import (
	"strconv"
	"strings"

	"github.com/kaerast/rpsd/internal/room"
	"github.com/kaerast/rpsd/internal/session"
)

const maxNameBytes = 32

// handleHello implements HELLO <nick>. Token generation is
// the one internal-failure path in this handler: a best-effort ERR 500
// is sent and the connection is torn down, without counting against
// invalid_streak (the client did nothing wrong).
func (e *Engine) handleHello(c *session.Client, arg string) result {
	if c.State != session.Connected {
		return fail(invalidState())
	}
	nick := arg
	if nick == "" {
		return fail(badFormat("missing_nick"))
	}
	if len(nick) > maxNameBytes {
		return fail(badFormat("nick_too_long"))
	}
	if e.clients.FindByName(nick) != nil {
		return fail(nicknameTaken())
	}

	token, err := e.gen.Generate()
	if err != nil {
		e.log.Error("token generation failed", "fd", c.FD, "err", err)
		e.send(c, serverError().line())
		return result{closeAfter: true}
	}

	c.Nick = nick
	c.Token = token
	c.State = session.Auth
	e.send(c, "WELCOME "+token)
	return ok()
}

// handleList implements LIST.
func (e *Engine) handleList(c *session.Client, arg string) result {
	if c.State != session.Auth {
		return fail(invalidState())
	}
	for _, line := range e.listLines() {
		e.send(c, line)
	}
	return ok()
}

// handleCreate implements CREATE <name>. The creator occupies p1
// immediately, so a fresh room lists at 1/2 before any JOIN.
func (e *Engine) handleCreate(c *session.Client, arg string) result {
	if c.State != session.Auth {
		return fail(invalidState())
	}
	if err := validRoomName(arg); err != "" {
		return fail(badFormat(err))
	}

	r, err := e.rooms.Create(arg)
	if err != nil {
		return fail(serverFull())
	}
	_ = e.rooms.AddPlayer(c, r) // r is fresh and empty: cannot fail
	e.send(c, "R_CREATED "+strconv.Itoa(int(r.ID)))
	return ok()
}

func validRoomName(name string) string {
	if name == "" {
		return "missing_name"
	}
	if strings.ContainsAny(name, " \t") {
		return "name_has_spaces"
	}
	if len(name) > maxNameBytes {
		return "name_too_long"
	}
	return ""
}

// handleJoin implements JOIN <id>.
func (e *Engine) handleJoin(c *session.Client, arg string) result {
	if c.State != session.Auth {
		return fail(invalidState())
	}
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return fail(badFormat("bad_room_id"))
	}

	r := e.rooms.FindByID(uint32(id))
	if r == nil {
		return fail(unknownRoom())
	}
	if r.State != room.Open {
		return fail(roomWrongState())
	}

	if err := e.rooms.AddPlayer(c, r); err != nil {
		return fail(roomWrongState())
	}
	e.send(c, "R_JOINED "+arg)

	if r.State == room.Full {
		e.send(r.Opponent(c), "P_JOINED "+c.Nick)
	}
	return ok()
}

// handleReady implements READY.
func (e *Engine) handleReady(c *session.Client, arg string) result {
	if c.State != session.InLobby {
		return fail(invalidState())
	}
	c.State = session.Ready
	e.send(c, "OK you_are_ready")

	r := e.rooms.FindByPlayer(c)
	opp := r.Opponent(c)
	if opp != nil && opp.State == session.Ready {
		e.match.StartGame(r)
	} else if opp != nil {
		e.send(opp, "P_READY "+c.Nick)
	}
	return ok()
}

// handleLeave implements LEAVE. A remaining occupant is told of the
// departure with OPP_INF NONE; there is no distinct wire event for it.
func (e *Engine) handleLeave(c *session.Client, arg string) result {
	if c.State != session.InLobby && c.State != session.Ready {
		return fail(invalidState())
	}
	r := e.rooms.FindByPlayer(c)
	if r == nil || (r.State != room.Open && r.State != room.Full) {
		return fail(invalidState())
	}

	roomID := r.ID
	e.rooms.RemovePlayer(c, r, func(remaining *session.Client) {
		e.send(remaining, "OPP_INF NONE")
	})
	if r.PlayerCount == 0 {
		e.rooms.RemoveRoom(r)
	}
	c.State = session.Auth
	c.RoomID = session.NoRoom

	e.send(c, "OK left_room "+strconv.Itoa(int(roomID)))
	return ok()
}

// handleMove implements MOVE <m>.
func (e *Engine) handleMove(c *session.Client, arg string) result {
	if c.State != session.Playing {
		return fail(invalidState())
	}
	r := e.rooms.FindByPlayer(c)
	if r == nil || r.State != room.Playing || !r.AwaitingMoves {
		return fail(invalidState())
	}

	m, valid := room.ParseMove(arg)
	if !valid {
		return fail(badFormat("bad_move"))
	}
	if r.MoveOf(c) != room.NoMove {
		return fail(invalidState())
	}

	r.SetMove(c, m)
	e.send(c, "M_ACC")

	if r.MoveOf(r.P1) != room.NoMove && r.MoveOf(r.P2) != room.NoMove {
		r.AwaitingMoves = false
		e.match.Resolve(r)
	}
	return ok()
}

// handleGetOpp implements GET_OPP.
func (e *Engine) handleGetOpp(c *session.Client, arg string) result {
	if c.State != session.InLobby && c.State != session.Ready {
		return fail(invalidState())
	}
	r := e.rooms.FindByPlayer(c)
	opp := r.Opponent(c)
	if opp == nil {
		e.send(c, "OPP_INF NONE")
		return ok()
	}

	status := "NOT_READY"
	if opp.State == session.Ready {
		status = "READY"
	}
	e.send(c, "OPP_INF "+opp.Nick+" "+status)
	return ok()
}

// handlePong implements PONG: no-op beyond the last_seen
// refresh Dispatch already applied.
func (e *Engine) handlePong(c *session.Client, arg string) result {
	return ok()
}

// handleQuit implements QUIT.
func (e *Engine) handleQuit(c *session.Client, arg string) result {
	e.send(c, "OK bye")
	return ok()
}
