package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brunobiangulo/paperlens"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	sessionTTL := flag.Duration("session-ttl", 24*time.Hour, "Drop idle sessions older than this")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := paperlens.LoadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	apiKey := os.Getenv("PAPERLENS_SERVER_API_KEY")
	corsOrigins := os.Getenv("PAPERLENS_CORS_ORIGINS")

	analyzer, err := paperlens.New(cfg)
	if err != nil {
		slog.Error("creating analyzer", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sessions := paperlens.NewSessions()
	defer sessions.CloseAll()
	go pruneSessions(ctx, sessions, *sessionTTL)

	h := newHandler(ctx, analyzer, sessions)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = h.routes()
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "poll_interval", cfg.PollInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	stop()

	slog.Info("server stopped")
}

// pruneSessions drops stale sessions until ctx is cancelled.
func pruneSessions(ctx context.Context, sessions *paperlens.Sessions, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(time.Now().Add(-ttl)); n > 0 {
				slog.Info("pruned sessions", "count", n, "remaining", sessions.Len())
			}
		}
	}
}
