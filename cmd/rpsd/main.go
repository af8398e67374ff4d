package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kaerast/rpsd/internal/arena"
	"github.com/kaerast/rpsd/internal/clock"
	"github.com/kaerast/rpsd/internal/config"
	"github.com/kaerast/rpsd/internal/metrics"
	"github.com/kaerast/rpsd/internal/server"
	"github.com/kaerast/rpsd/internal/tokens"
)

const (
	defaultBindAddr = "0.0.0.0"
	defaultPort     = 2500
	configPathEnv   = "RPSD_CONFIG"
	defaultConfig   = "config/rpsd.yaml"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	bindAddr, port, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: rpsd [<bind_ip> [<port>]]")
		os.Exit(1)
	}

	if err := run(ctx, bindAddr, port); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// parseArgs implements the CLI surface: server [<bind_ip> [<port>]],
// defaulting to 0.0.0.0:2500.
func parseArgs(args []string) (bindAddr string, port int, err error) {
	bindAddr, port = defaultBindAddr, defaultPort

	if len(args) > 0 {
		bindAddr = args[0]
	}
	if len(args) > 1 {
		port, err = strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("invalid port %q: %w", args[1], err)
		}
	}
	if len(args) > 2 {
		return "", 0, fmt.Errorf("too many arguments")
	}
	return bindAddr, port, nil
}

func run(ctx context.Context, bindAddr string, port int) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	slog.Info("rpsd starting")

	cfgPath := defaultConfig
	if p := os.Getenv(configPathEnv); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	slog.Info("config loaded",
		"max_clients", cfg.MaxClients,
		"max_rooms", cfg.MaxRooms,
		"win_threshold", cfg.WinThreshold,
		"metrics_addr", cfg.MetricsAddr,
	)

	met := metrics.New()
	engine := arena.New(cfg, clock.Real{}, tokens.Rand{}, log, met)
	srv := server.New(cfg, engine, log, met.Handler())

	if err := srv.Run(ctx, bindAddr, port); err != nil {
		return fmt.Errorf("running server: %w", err)
	}
	return nil
}
