// Package arena wires the client registry, room registry and match
// engine behind a single global lock, and implements the protocol
// dispatcher, reconnect adoption, the heartbeat/timeout supervisor and
// the connection worker.
package arena

import (
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kaerast/rpsd/internal/clock"
	"github.com/kaerast/rpsd/internal/config"
	"github.com/kaerast/rpsd/internal/match"
	"github.com/kaerast/rpsd/internal/room"
	"github.com/kaerast/rpsd/internal/session"
	"github.com/kaerast/rpsd/internal/tokens"
)

// Metrics receives the events arena itself is responsible for, on top
// of the round/match events match.Metrics already covers.
type Metrics interface {
	match.Metrics
	ReconnectAccepted()
	ReconnectRejected()
	HardDisconnect()
	Observe(totalClients int, clientsByState map[string]int, roomsByState map[string]int)
}

type noopMetrics struct{}

func (noopMetrics) MatchStarted()                               {}
func (noopMetrics) MatchFinished()                              {}
func (noopMetrics) RoundResolved(string)                        {}
func (noopMetrics) ReconnectAccepted()                          {}
func (noopMetrics) ReconnectRejected()                          {}
func (noopMetrics) HardDisconnect()                             {}
func (noopMetrics) Observe(int, map[string]int, map[string]int) {}

// Engine is the lock owner for the whole server: every mutation of a
// Client or Room, and every send that inspects either, happens while
// mu is held. mu is released before any blocking socket read; the
// dispatcher and supervisor only ever hold it for the duration of one
// logical transition.
type Engine struct {
	mu sync.Mutex

	cfg   config.Config
	clock clock.Clock
	gen   tokens.Generator
	log   *slog.Logger
	met   Metrics

	clients *session.Registry
	rooms   *room.Registry
	match   *match.Engine

	nextFD atomic.Uint64
}

// New builds an Engine from a config and its external collaborators.
// met may be nil, in which case metrics are a no-op.
func New(cfg config.Config, clk clock.Clock, gen tokens.Generator, log *slog.Logger, met Metrics) *Engine {
	if met == nil {
		met = noopMetrics{}
	}
	e := &Engine{
		cfg:   cfg,
		clock: clk,
		gen:   gen,
		log:   log,
		met:   met,
		rooms: room.NewRegistry(cfg.MaxRooms),
	}
	e.clients = session.NewRegistry(&e.mu, cfg.MaxClients)
	e.match = &match.Engine{
		Win:          cfg.WinThreshold,
		RoundTimeout: cfg.RoundTimeout,
		Clock:        clk,
		Send:         e.send,
		Rooms:        e.rooms,
		Metrics:      met,
	}
	return e
}

// send delivers one line to c, logging (never panicking) on failure.
// A failed send is not itself treated as a disconnect here: a partial
// write surfaces as EOF on the worker's next read.
func (e *Engine) send(c *session.Client, line string) {
	if c == nil || c.Conn == nil {
		return
	}
	if err := c.Conn.Send(line); err != nil {
		e.log.Warn("send failed", "fd", c.FD, "nick", c.Nick, "err", err)
	}
}

func (e *Engine) allocFD() uint64 {
	return e.nextFD.Add(1)
}

// observeLocked snapshots client/room counts into the metrics
// collector. Called once per supervisor tick, under the lock.
func (e *Engine) observeLocked() {
	byClientState := make(map[string]int, 5)
	total := 0
	e.clients.ForEach(func(c *session.Client) {
		total++
		byClientState[c.State.String()]++
	})

	byRoomState := make(map[string]int, 4)
	e.rooms.ForEach(func(r *room.Room) {
		byRoomState[r.State.String()]++
	})

	e.met.Observe(total, byClientState, byRoomState)
}

// listLines builds the R_LIST snapshot: the count line followed by one
// ROOM line per occupied room, in table order. Caller must hold mu.
func (e *Engine) listLines() []string {
	lines := make([]string, 0, e.rooms.Count()+1)
	lines = append(lines, "")
	e.rooms.ForEach(func(r *room.Room) {
		lines = append(lines, roomLine(r))
	})
	lines[0] = "R_LIST " + strconv.Itoa(len(lines)-1)
	return lines
}

func roomLine(r *room.Room) string {
	return "ROOM " + strconv.Itoa(int(r.ID)) + " " + r.Name + " " + strconv.Itoa(r.PlayerCount) + "/2 " + r.State.String()
}
