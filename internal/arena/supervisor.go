package arena

import (
	"github.com/kaerast/rpsd/internal/room"
	"github.com/kaerast/rpsd/internal/session"
)

// Tick runs one supervisor pass: per-client heartbeat
// progression and pings, then a round-timeout sweep over every
// Playing room. It acquires mu itself; callers run this on their own
// ~SupervisorTick cadence.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()

	var toClose, toUnregister []*session.Client
	e.clients.ForEach(func(c *session.Client) {
		switch {
		case c.Heartbeat == session.Live && now.Sub(c.LastSeen) >= e.cfg.SoftTimeout:
			c.Heartbeat = session.Soft
			e.softTimeoutEffects(c)
			toClose = append(toClose, c)
		case c.Heartbeat == session.Soft && now.Sub(c.LastSeen) >= e.cfg.HardTimeout:
			e.hardDisconnectCleanup(c)
			c.Heartbeat = session.Hard
			toClose = append(toClose, c)
			toUnregister = append(toUnregister, c)
		case c.Heartbeat == session.Live && now.Sub(c.LastPingSent) >= e.cfg.PingInterval:
			e.send(c, "PING")
			c.LastPingSent = now
		}
	})

	// Force-closes and unregistration happen after the scan: ForEach's
	// contract forbids mutating the registry mid-traversal.
	for _, c := range toClose {
		if c.Conn != nil {
			_ = c.Conn.CloseRead()
		}
	}
	for _, c := range toUnregister {
		e.clients.Unregister(c)
	}

	e.rooms.ForEach(func(r *room.Room) {
		if r.State == room.Playing && r.AwaitingMoves && now.Sub(r.RoundStartTime) >= e.cfg.RoundTimeout {
			e.match.HandleRoundTimeout(r)
		}
	})

	e.observeLocked()
}

// softTimeoutEffects notifies collaborators for a client that just
// went Soft, according to its current state.
func (e *Engine) softTimeoutEffects(c *session.Client) {
	switch c.State {
	case session.InLobby, session.Ready:
		c.State = session.InLobby
		if r := e.rooms.FindByPlayer(c); r != nil {
			if opp := r.Opponent(c); opp != nil {
				e.send(opp, "OPP_INF "+c.Nick+" N_R")
			}
		}
	case session.Playing:
		if r := e.rooms.FindByPlayer(c); r != nil {
			r.State = room.Paused
			r.AwaitingMoves = false
			if opp := r.Opponent(c); opp != nil {
				e.send(opp, "G_PAUSE")
			}
		}
	}
}

// hardDisconnectCleanup tears down a client's room/opponent state on
// an abandoned session. It never unregisters c itself; callers (the
// supervisor's hard-timeout branch, or the connection worker's
// terminal cleanup) do that once cleanup returns.
func (e *Engine) hardDisconnectCleanup(c *session.Client) {
	if c.Replaced {
		return
	}
	e.met.HardDisconnect()

	switch c.State {
	case session.InLobby, session.Ready:
		if r := e.rooms.FindByPlayer(c); r != nil {
			e.rooms.RemovePlayer(c, r, func(remaining *session.Client) {
				e.send(remaining, "OPP_INF NONE")
			})
			if r.PlayerCount == 0 {
				e.rooms.RemoveRoom(r)
			}
		}
	case session.Playing:
		if r := e.rooms.FindByPlayer(c); r != nil {
			if opp := r.Opponent(c); opp != nil {
				e.send(opp, "G_END opp_l")
				opp.State = session.Auth
				opp.RoomID = session.NoRoom
			}
			e.rooms.RemoveRoom(r)
		}
	}
}
