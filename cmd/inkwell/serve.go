package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsheridan/inkwell/internal/config"
	"github.com/rsheridan/inkwell/internal/database"
	"github.com/rsheridan/inkwell/internal/email"
	"github.com/rsheridan/inkwell/internal/logging"
	"github.com/rsheridan/inkwell/internal/server"
)

const cleanupInterval = 10 * time.Minute

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail)
			if !mailer.Configured() {
				logger.Warn("postmark not configured, login codes will not be delivered")
			}

			srv := server.New(db, mailer, cfg.AdminEmails, logger)

			// Background cleanup of expired codes, sessions and stale
			// rate-limit windows.
			stopCleanup := make(chan struct{})
			go func() {
				ticker := time.NewTicker(cleanupInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if n, err := srv.MagicCodeStore().DeleteExpired(); err != nil {
							logger.Error("cleanup magic codes", "error", err)
						} else if n > 0 {
							logger.Debug("cleaned up expired magic codes", "count", n)
						}
						if n, err := srv.SessionStore().DeleteExpired(); err != nil {
							logger.Error("cleanup sessions", "error", err)
						} else if n > 0 {
							logger.Debug("cleaned up expired sessions", "count", n)
						}
						srv.RateLimiter().Cleanup()
					case <-stopCleanup:
						return
					}
				}
			}()
			defer close(stopCleanup)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv.Router(),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("inkwell running", "port", cfg.Port)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-quit:
			}

			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
