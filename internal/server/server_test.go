package server

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaerast/rpsd/internal/arena"
	"github.com/kaerast/rpsd/internal/config"
	"github.com/kaerast/rpsd/internal/testutil"
	"github.com/kaerast/rpsd/internal/tokens"
)

// TestServer_AcceptLoopServesOneClient drives a full HELLO/CREATE round
// trip over a real TCP listener, end to end through Serve's accept
// loop, proving the engine is reachable from an accepted net.Conn and
// not just from the in-process fakeConn test double used by
// internal/arena's own tests.
func TestServer_AcceptLoopServesOneClient(t *testing.T) {
	cfg := config.Default()
	cfg.MaxClients = 4
	cfg.MaxRooms = 2
	cfg.MetricsAddr = ""

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := testutil.NewFakeClock(time.Unix(2000, 0))
	engine := arena.New(cfg, clk, tokens.Rand{}, log, nil)

	srv := New(cfg, engine, log, nil)
	ln, addr := testutil.ListenTCP(t)

	ctx, cancel := testutil.ContextWithCancel(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	br := bufio.NewReader(conn)

	_, err = conn.Write([]byte("HELLO alice\r\n"))
	require.NoError(t, err)
	welcome, err := br.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, "WELCOME ")

	_, err = conn.Write([]byte("CREATE g1\r\n"))
	require.NoError(t, err)
	created, err := br.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, created, "R_CREATED 1")
}

// TestServer_PipeConnRoundTrip exercises the engine's own Serve against
// a net.Pipe connection rather than a real socket, confirming the engine
// only depends on the net.Conn interface.
func TestServer_PipeConnRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.MaxClients = 4

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := testutil.NewFakeClock(time.Unix(3000, 0))
	engine := arena.New(cfg, clk, tokens.Rand{}, log, nil)

	client, serverSide := testutil.PipeConn(t)
	go engine.Serve(serverSide)

	_, err := client.Write([]byte("HELLO bob\r\n"))
	require.NoError(t, err)

	br := bufio.NewReader(client)
	welcome, err := br.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, "WELCOME ")

	_, err = client.Write([]byte("QUIT\r\n"))
	require.NoError(t, err)
	bye, err := br.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, bye, "OK bye")
}
