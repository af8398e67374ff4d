package arena

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kaerast/rpsd/internal/config"
	"github.com/kaerast/rpsd/internal/session"
	"github.com/kaerast/rpsd/internal/testutil"
)

// fakeConn is a session.Conn test double that records sent lines
// instead of touching a real socket.
type fakeConn struct {
	mu              sync.Mutex
	sent            []string
	closeReadCalled bool
	closed          bool
}

func (f *fakeConn) Send(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeConn) CloseRead() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeReadCalled = true
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeConn) last() string {
	lines := f.lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// fakeTokens hands out predictable, distinguishable tokens.
type fakeTokens struct{ n atomic.Uint64 }

func (f *fakeTokens) Generate() (string, error) {
	return fmt.Sprintf("token-%d", f.n.Add(1)), nil
}

var testFD atomic.Uint64

func newTestEngine(t *testing.T) (*Engine, *testutil.FakeClock) {
	t.Helper()
	cfg := config.Default()
	cfg.MaxClients = 8
	cfg.MaxRooms = 4
	cfg.WinThreshold = 2
	cfg.MaxInvalid = 3
	clk := testutil.NewFakeClock(time.Unix(1000, 0))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(cfg, clk, &fakeTokens{}, log, nil)
	return e, clk
}

func connectClient(t *testing.T, e *Engine) (*session.Client, *fakeConn) {
	t.Helper()
	fc := &fakeConn{}
	c := session.New(testFD.Add(1), fc, e.clock.Now())
	if err := e.clients.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	return c, fc
}

func helloClient(t *testing.T, e *Engine, nick string) (*session.Client, *fakeConn) {
	t.Helper()
	c, fc := connectClient(t, e)
	if closeConn := e.Dispatch(c, "HELLO "+nick, false); closeConn {
		t.Fatalf("HELLO unexpectedly closed the connection")
	}
	return c, fc
}
