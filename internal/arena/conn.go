package arena

import (
	"errors"
	"io"
	"net"

	"github.com/kaerast/rpsd/internal/protocol"
	"github.com/kaerast/rpsd/internal/session"
)

// netConn adapts a net.Conn to session.Conn. CloseRead uses the
// half-close supported by *net.TCPConn when available, falling back
// to a full close for connection types that don't support it (e.g.
// the net.Pipe conns used in tests).
type netConn struct {
	conn net.Conn
}

func (n *netConn) Send(line string) error {
	return protocol.WriteLine(n.conn, line)
}

func (n *netConn) CloseRead() error {
	if half, ok := n.conn.(interface{ CloseRead() error }); ok {
		return half.CloseRead()
	}
	return n.conn.Close()
}

func (n *netConn) Close() error {
	return n.conn.Close()
}

// Serve is the connection worker for one accepted socket.
// It registers a Client, reads frames until the connection dies, and
// runs terminal cleanup. Serve returns once the connection is fully
// torn down; the caller (the accept loop) need not do anything more
// with conn.
func (e *Engine) Serve(conn net.Conn) {
	nc := &netConn{conn: conn}
	c := session.New(e.allocFD(), nc, e.clock.Now())

	if err := e.clients.Register(c); err != nil {
		e.log.Warn("client registry full, rejecting connection", "remote", conn.RemoteAddr())
		_ = nc.Send(serverError().line())
		_ = conn.Close()
		return
	}

	reader := protocol.NewReader(conn, e.cfg.MaxLineLength)
	for {
		line, truncated, err := reader.ReadFrame()
		if err != nil {
			if !isClosed(err) {
				e.log.Debug("read error", "fd", c.FD, "nick", c.Nick, "err", err)
			}
			break
		}
		if e.Dispatch(c, line, truncated) {
			_ = conn.Close()
			break
		}
	}

	_ = conn.Close()
	e.terminalCleanup(c)
}

// terminalCleanup runs when a connection's read loop exits: a client
// whose heartbeat is Soft is left registered (a RECONNECT may still
// adopt it); otherwise it is torn down and unregistered for good.
func (e *Engine) terminalCleanup(c *session.Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.Replaced {
		return
	}
	if c.Heartbeat == session.Soft {
		return
	}

	e.hardDisconnectCleanup(c)
	e.clients.Unregister(c)
}

// isClosed reports whether err is the ordinary "someone closed the
// connection" outcome, as opposed to a surprising I/O error worth
// logging. Serve uses it only to decide whether to log; every read
// error ends the read loop either way.
func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
