// Package main implements the agent-bridge binary, the in-container HTTP
// front for AgentCore CONTAINER images. It serves the AgentCore HTTP
// contract (/invocations and /ping on port 8080) and forwards requests to
// the local agent process over its loopback JSON API, with SSE streaming
// and a WebSocket bridge for interactive clients.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	shutdownTimeout        = 10 * time.Second
	defaultReadHeaderTmout = 10 * time.Second
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	healthH := newHealthHandler()
	b := newBridge(cfg, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+invocationsPath, b.handleInvocation)
	mux.HandleFunc("/ws", b.handleWebSocket)
	mux.Handle("/ping", healthH)
	mux.HandleFunc("/", b.handleUnknown)

	addr := fmt.Sprintf(":%d", cfg.Port)
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info("listening", "addr", ln.Addr().String(), "agent", cfg.agentBaseURL(), "version", version)

	return runWithShutdown(log, ln, mux, healthH)
}

// runWithShutdown starts the HTTP server and drains on SIGTERM/SIGINT.
func runWithShutdown(log *slog.Logger, ln net.Listener, mux *http.ServeMux, healthH *healthHandler) error {
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: defaultReadHeaderTmout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	healthH.setUnhealthy()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
