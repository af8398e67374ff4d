// Package server wires an arena.Engine to a listening socket, a
// heartbeat/timeout supervisor loop and a metrics HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kaerast/rpsd/internal/arena"
	"github.com/kaerast/rpsd/internal/config"
)

// Server accepts rock-paper-scissors connections on the address given
// to Run (or on the listener given to Serve),
// runs the engine's supervisor tick on its own cadence, and (if
// MetricsAddr is set) serves Prometheus metrics on a second listener.
type Server struct {
	cfg    config.Config
	engine *arena.Engine
	log    *slog.Logger

	metricsHandler http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// New builds a Server around an already-constructed engine.
func New(cfg config.Config, engine *arena.Engine, log *slog.Logger, metricsHandler http.Handler) *Server {
	return &Server{cfg: cfg, engine: engine, log: log, metricsHandler: metricsHandler}
}

// Addr returns the address the game socket is listening on, or nil if
// the server hasn't started yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on bindAddr:port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, bindAddr string, port int) error {
	addr := fmt.Sprintf("%s:%d", bindAddr, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve accepts connections on an already-bound listener and runs the
// supervisor and (optional) metrics listener alongside it, all torn
// down together when ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("rpsd game server started", "address", ln.Addr())
		acceptLoop(ctx, s.engine, ln, s.log)
		return nil
	})

	g.Go(func() error {
		s.superviseLoop(ctx)
		return nil
	})

	if s.cfg.MetricsAddr != "" && s.metricsHandler != nil {
		g.Go(func() error {
			return s.serveMetrics(ctx)
		})
	}

	return g.Wait()
}

func acceptLoop(ctx context.Context, engine *arena.Engine, ln net.Listener, log *slog.Logger) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Error("accept failed", "err", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				engine.Serve(conn)
			}()
		}
	}
}

// superviseLoop runs engine.Tick on cfg.SupervisorTick cadence until
// ctx is cancelled.
func (s *Server) superviseLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SupervisorTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.Tick()
		}
	}
}

func (s *Server) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metricsHandler)

	srv := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("metrics listener started", "address", s.cfg.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics listener: %w", err)
	}
	return nil
}
