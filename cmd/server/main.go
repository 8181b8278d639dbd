package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tabsplit/internal/auth"
	"tabsplit/internal/config"
	"tabsplit/internal/middleware"
	"tabsplit/internal/receipt"
	"tabsplit/internal/server"
	"tabsplit/internal/session"
	"tabsplit/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AnthropicAPIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set; receipt parsing will fail upstream")
	}
	if cfg.ShareTokenSecret == "" {
		slog.Warn("SHARE_TOKEN_SECRET not set; share links will not survive restarts")
		cfg.ShareTokenSecret = randomSecret()
	}

	store := session.NewStore(cfg.SessionTTL)
	parser := receipt.NewClient(receipt.Config{
		BaseURL: cfg.AnthropicBaseURL,
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.AnthropicModel,
		Timeout: cfg.ParseTimeout,
	})
	shares := auth.NewShareManager(cfg.ShareTokenSecret, cfg.ShareTokenTTL)

	api := server.New(store, parser, shares, cfg.MaxImageBytes)
	handler := middleware.Logging(middleware.Metrics(middleware.CORS(api.Handler())))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
		// WriteTimeout must outlast the vision model call.
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   cfg.ParseTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go store.Sweep(ctx, cfg.SweepInterval)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("Server starting", "address", srv.Addr, "session_ttl", cfg.SessionTTL.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}

// randomSecret generates a per-process share secret for setups that never
// configured one.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("Failed to generate share secret", "error", err)
		os.Exit(1)
	}
	return hex.EncodeToString(buf)
}
