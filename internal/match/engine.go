// Package match implements the round/game lifecycle: starting a game,
// starting a round, resolving a round, ending a game, and handling a
// round timeout.
package match

import (
	"fmt"
	"time"

	"github.com/kaerast/rpsd/internal/clock"
	"github.com/kaerast/rpsd/internal/room"
	"github.com/kaerast/rpsd/internal/session"
)

// Sender delivers one framed line to a client. Implemented by the
// engine that owns the connection worker; a no-op or recording stub
// backs tests.
type Sender func(c *session.Client, line string)

// Metrics receives round/match outcome events for observability. A nil
// Metrics disables instrumentation.
type Metrics interface {
	MatchStarted()
	MatchFinished()
	RoundResolved(outcome string) // "win", "draw", or "timeout"
}

// Engine runs the round lifecycle for rooms. It holds no lock of its
// own: every method is called by the dispatcher or supervisor while
// already holding the engine-wide global lock.
type Engine struct {
	Win          int
	RoundTimeout time.Duration
	Clock        clock.Clock
	Send         Sender
	Rooms        *room.Registry
	Metrics      Metrics
}

func (e *Engine) metrics() Metrics {
	if e.Metrics == nil {
		return noopMetrics{}
	}
	return e.Metrics
}

type noopMetrics struct{}

func (noopMetrics) MatchStarted()        {}
func (noopMetrics) MatchFinished()       {}
func (noopMetrics) RoundResolved(string) {}

// StartGame begins a match: resets scores, moves both players to
// Playing, and starts the first round.
func (e *Engine) StartGame(r *room.Room) {
	r.State = room.Playing
	r.RoundNumber = 0
	r.ScoreP1, r.ScoreP2 = 0, 0
	r.P1.State = session.Playing
	r.P2.State = session.Playing

	e.Send(r.P1, "G_ST")
	e.Send(r.P2, "G_ST")
	e.metrics().MatchStarted()

	e.StartNextRound(r)
}

// StartNextRound begins a fresh round: clears moves, stamps the round
// start time, and announces the round number to both players.
func (e *Engine) StartNextRound(r *room.Room) {
	r.RoundNumber++
	r.MoveP1, r.MoveP2 = room.NoMove, room.NoMove
	r.RoundStartTime = e.Clock.Now()
	r.AwaitingMoves = true

	line := fmt.Sprintf("R_ST %d", r.RoundNumber)
	e.Send(r.P1, line)
	e.Send(r.P2, line)
}

// Resolve is called once both players have submitted a move for the
// current round. It scores the round, announces the result to each
// player in their own perspective, and either ends the game or starts
// the next round.
func (e *Engine) Resolve(r *room.Room) {
	var winner *session.Client
	switch {
	case r.MoveP1 == r.MoveP2:
		winner = nil
	case r.MoveP1.Beats(r.MoveP2):
		winner = r.P1
	default:
		winner = r.P2
	}

	switch winner {
	case r.P1:
		r.ScoreP1++
	case r.P2:
		r.ScoreP2++
	}
	e.metrics().RoundResolved(outcomeLabel(winner))

	e.announceRound(r, winner)
	e.advance(r)
}

// HandleRoundTimeout is invoked by the supervisor when a round's
// timeout has elapsed with awaiting_moves still true. A paused room's
// timer is suspended and this is a no-op.
func (e *Engine) HandleRoundTimeout(r *room.Room) {
	if r.State == room.Paused {
		return
	}
	r.AwaitingMoves = false

	moved1 := r.MoveP1 != room.NoMove
	moved2 := r.MoveP2 != room.NoMove

	switch {
	case moved1 && !moved2:
		r.ScoreP1++
	case moved2 && !moved1:
		r.ScoreP2++
	}
	e.metrics().RoundResolved("timeout")

	e.send(r.P1, fmt.Sprintf("R_RE T %s %s %d %d", wireMove(r.MoveP1), wireMove(r.MoveP2), r.ScoreP1, r.ScoreP2))
	e.send(r.P2, fmt.Sprintf("R_RE T %s %s %d %d", wireMove(r.MoveP2), wireMove(r.MoveP1), r.ScoreP2, r.ScoreP1))

	e.advance(r)
}

// EndGame announces the winner, resets both players to Auth with no
// room, and releases the room slot.
func (e *Engine) EndGame(r *room.Room) {
	winnerNick := r.P1.Nick
	if r.ScoreP2 >= e.Win {
		winnerNick = r.P2.Nick
	}

	line := fmt.Sprintf("G_END %s", winnerNick)
	e.Send(r.P1, line)
	e.Send(r.P2, line)

	e.resetToAuth(r.P1)
	e.resetToAuth(r.P2)
	e.Rooms.RemoveRoom(r)
	e.metrics().MatchFinished()
}

func (e *Engine) resetToAuth(c *session.Client) {
	c.State = session.Auth
	c.RoomID = session.NoRoom
}

func (e *Engine) advance(r *room.Room) {
	if r.ScoreP1 >= e.Win || r.ScoreP2 >= e.Win {
		e.EndGame(r)
		return
	}
	e.StartNextRound(r)
}

func (e *Engine) announceRound(r *room.Room, winner *session.Client) {
	result := "DRAW"
	if winner != nil {
		result = winner.Nick
	}

	e.send(r.P1, fmt.Sprintf("R_RE %s %s %s %d %d", result, wireMove(r.MoveP1), wireMove(r.MoveP2), r.ScoreP1, r.ScoreP2))
	e.send(r.P2, fmt.Sprintf("R_RE %s %s %s %d %d", result, wireMove(r.MoveP2), wireMove(r.MoveP1), r.ScoreP2, r.ScoreP1))
}

func (e *Engine) send(c *session.Client, line string) {
	if c == nil {
		return
	}
	e.Send(c, line)
}

func wireMove(m room.Move) string {
	if m == room.NoMove {
		return "X"
	}
	return m.String()
}

func outcomeLabel(winner *session.Client) string {
	if winner == nil {
		return "draw"
	}
	return "win"
}
