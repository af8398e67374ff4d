package arena

import (
	"strings"

	"github.com/kaerast/rpsd/internal/session"
)

// result is what a command handler reports back to the dispatcher.
// perr is nil on success. closeAfter asks the dispatcher to tear the
// connection down after responding, independent of the invalid_streak
// bookkeeping. RECONNECT uses it to hang up a refused new connection
// immediately.
type result struct {
	perr       *protoErr
	closeAfter bool
}

func ok() result             { return result{} }
func fail(e protoErr) result { return result{perr: &e} }

type handlerFunc func(e *Engine, c *session.Client, arg string) result

var handlers = map[string]handlerFunc{
	"HELLO":     (*Engine).handleHello,
	"LIST":      (*Engine).handleList,
	"CREATE":    (*Engine).handleCreate,
	"JOIN":      (*Engine).handleJoin,
	"READY":     (*Engine).handleReady,
	"LEAVE":     (*Engine).handleLeave,
	"MOVE":      (*Engine).handleMove,
	"GET_OPP":   (*Engine).handleGetOpp,
	"PONG":      (*Engine).handlePong,
	"RECONNECT": (*Engine).handleReconnect,
	"QUIT":      (*Engine).handleQuit,
}

// Dispatch handles one framed line from c: it updates last_seen,
// parses verb/argument, routes to the matching handler and applies
// the invalid_streak rule. It reports whether the caller
// (the connection worker) should now close the socket.
//
// A truncated (oversized) frame is treated as malformed without ever
// being parsed.
func (e *Engine) Dispatch(c *session.Client, line string, truncated bool) (shouldClose bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c.LastSeen = e.clock.Now()

	if truncated {
		return e.applyResult(c, fail(badFormat("line_too_long")))
	}

	verb, arg, _ := strings.Cut(line, " ")
	verb = strings.TrimSpace(verb)
	arg = strings.TrimSpace(arg)

	h, found := handlers[verb]
	if !found {
		return e.applyResult(c, fail(badFormat("unknown_command")))
	}

	return e.applyResult(c, h(e, c, arg))
}

// applyResult sends the ERR line (if any), maintains invalid_streak,
// and decides whether the connection must now be closed. Caller holds
// mu.
func (e *Engine) applyResult(c *session.Client, res result) (shouldClose bool) {
	if res.perr != nil {
		e.send(c, res.perr.line())
		c.InvalidStreak++
	} else {
		c.InvalidStreak = 0
	}

	if res.closeAfter || c.InvalidStreak >= e.cfg.MaxInvalid {
		return true
	}
	return false
}
