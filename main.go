package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaronzipp/echo-chamber/internal/config"
	"github.com/aaronzipp/echo-chamber/internal/handlers"
	"github.com/aaronzipp/echo-chamber/internal/logging"
	"github.com/aaronzipp/echo-chamber/internal/metrics"
	"github.com/aaronzipp/echo-chamber/internal/store"
	"github.com/aaronzipp/echo-chamber/internal/ws"
)

func main() {
	environ, err := config.Environ(config.DefaultEnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:], environ)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	m := metrics.New()
	registry := store.NewRegistry(logger)
	hub := ws.NewHub(ws.Options{
		SendBuffer:           cfg.SendBuffer,
		WriteTimeout:         cfg.WriteTimeout,
		PingInterval:         cfg.PingInterval,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
	}, m, logger)

	h := &handlers.Context{
		Registry:       registry,
		Hub:            hub,
		Metrics:        m,
		Logger:         logger,
		PublicURL:      cfg.PublicURL,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "public_url", cfg.PublicURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// hijacked WebSocket connections are not tracked by Shutdown
	hub.Shutdown()
	err := srv.Shutdown(shutdownCtx)
	registry.Close()
	return err
}
