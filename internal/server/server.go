package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrplate/qrplate/internal/api"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/config"
	"github.com/qrplate/qrplate/internal/db"
	"github.com/qrplate/qrplate/internal/logger"
	"github.com/qrplate/qrplate/internal/mailer"
	"github.com/qrplate/qrplate/internal/queue"
	"github.com/qrplate/qrplate/internal/rbac"
	"github.com/qrplate/qrplate/internal/worker"
	"gorm.io/gorm"
)

// Options control which components a process runs.
type Options struct {
	Port      int    // Overrides the configured port when > 0
	Mode      string // "server", "worker", or "both"
	SkipOwner bool   // Skip bootstrap owner creation
}

// Run starts the configured components and blocks until SIGINT/SIGTERM.
func Run(cfg *config.Config, opts Options) error {
	logger.Init(cfg.Log.Format, cfg.Log.Level)

	if opts.Mode == "" {
		opts.Mode = "both"
	}
	runServer := opts.Mode == "server" || opts.Mode == "both"
	runWorker := opts.Mode == "worker" || opts.Mode == "both"
	if !runServer && !runWorker {
		return fmt.Errorf("invalid mode: %s (expected server, worker, or both)", opts.Mode)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := rbac.InitEnforcer(database, slog.Default()); err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	if !opts.SkipOwner {
		if err := db.CreateDefaultOwner(database); err != nil {
			return fmt.Errorf("failed to create default owner: %w", err)
		}
	}

	q, err := createQueue(cfg, database)
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)

	var workerDone chan struct{}
	if runWorker {
		sender, err := mailer.FromConfig(cfg.Mail)
		if err != nil {
			return fmt.Errorf("failed to create mail sender: %w", err)
		}
		w := worker.New(database, q, sender, slog.Default())
		workerDone = make(chan struct{})
		go func() {
			defer close(workerDone)
			if err := w.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("worker stopped: %w", err)
			}
		}()
	}

	var httpServer *http.Server
	if runServer {
		tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
		authenticator := auth.NewBasicAuthenticator(database, cfg.Auth.JWTSecret, tokenTTL)

		router := api.NewRouter(database, cfg, authenticator, q)

		port := cfg.Server.Port
		if opts.Port > 0 {
			port = opts.Port
		}

		httpServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		}

		go func() {
			slog.Info("HTTP server listening", "port", port, "mode", cfg.Server.Mode)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("http server stopped: %w", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	cancel()

	// Join the worker before the deferred queue Close so shutdown never
	// races an in-flight Dequeue
	if workerDone != nil {
		select {
		case <-workerDone:
		case <-time.After(10 * time.Second):
			slog.Warn("Worker did not stop within shutdown grace period")
		}
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}

	slog.Info("Shutdown complete")
	return nil
}

// createQueue builds the notification queue named by configuration.
func createQueue(cfg *config.Config, database *gorm.DB) (queue.Queue, error) {
	switch cfg.Queue.Type {
	case "", "memory":
		slog.Info("Using in-memory notification queue")
		return queue.NewMemoryQueue(100), nil
	case "valkey":
		return queue.NewValkeyQueue(cfg.Queue.ValkeyAddr, database)
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", cfg.Queue.Type)
	}
}
