// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbdock/dbdock/internal/auth"
	authpg "github.com/dbdock/dbdock/internal/auth/postgres"
	"github.com/dbdock/dbdock/internal/config"
	"github.com/dbdock/dbdock/internal/httpapi"
	"github.com/dbdock/dbdock/internal/logging"
	"github.com/dbdock/dbdock/internal/observability"
	"github.com/dbdock/dbdock/internal/provision"
	"github.com/dbdock/dbdock/internal/store"
	"github.com/dbdock/dbdock/internal/users"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand.
func newServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dbdock API server",
		Long: `Start the dbdock API server: connects to PostgreSQL, optionally runs
pending migrations, and serves the REST API until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "run pending database migrations on startup")

	return cmd
}

func runServe(ctx context.Context, autoMigrate bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Setup("dbdock", version, cfg.Log.Level, cfg.Log.Format, nil)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if autoMigrate {
		if err := runPendingMigrations(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	userRepo := authpg.NewUserRepository(pool)
	sessionRepo := authpg.NewSessionRepository(pool)

	verifier, err := auth.NewVerifierPool(auth.NewArgon2idHasher(), cfg.Verifier.Workers, cfg.Verifier.Queue)
	if err != nil {
		return fmt.Errorf("failed to create verifier pool: %w", err)
	}
	defer verifier.Close()

	sessions, err := auth.NewSessionManager(sessionRepo)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	authService, err := auth.NewAuthServiceWithLogger(userRepo, sessions, verifier, logger)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	userService, err := users.NewService(userRepo, verifier, logger)
	if err != nil {
		return fmt.Errorf("failed to create users service: %w", err)
	}

	var provisioner *provision.Service
	if cfg.Docker.Enabled {
		backend, backendErr := provision.NewDockerBackend()
		if backendErr != nil {
			return fmt.Errorf("failed to connect to Docker: %w", backendErr)
		}
		defer func() {
			if closeErr := backend.Close(); closeErr != nil {
				logger.Warn("error closing Docker client", "error", closeErr)
			}
		}()

		provisioner, err = provision.NewService(backend, logger)
		if err != nil {
			return fmt.Errorf("failed to create provisioning service: %w", err)
		}
	} else {
		logger.Info("Docker provisioning disabled")
	}

	ready := &readiness{}
	obsServer := observability.NewServer(cfg.Observability.Addr, ready.check)
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return fmt.Errorf("failed to start observability server: %w", err)
	}
	logger.Info("observability server started", "addr", obsServer.Addr())

	handler, err := httpapi.NewRouter(httpapi.RouterOptions{
		AuthService: authService,
		Sessions:    sessions,
		Users:       userService,
		Provisioner: provisioner,
		Logger:      logger,
		Metrics:     obsServer.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	apiServer, err := httpapi.NewServer(cfg.Server.Addr, handler, logger)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopObservability(obsServer, logger)
		return fmt.Errorf("failed to start API server: %w", err)
	}

	ready.set(true)
	logger.Info("dbdock started", "addr", apiServer.Addr())

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			logger.Error("api server failed", "error", serveErr)
		}
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			logger.Error("observability server failed", "error", obsErr)
		}
	}

	ready.set(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("error stopping API server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("dbdock stopped")
	return nil
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Error("error stopping observability server", "error", err)
	}
}

// readiness flips the readiness probe once all servers are up.
type readiness struct {
	ready atomic.Bool
}

func (r *readiness) set(v bool) { r.ready.Store(v) }
func (r *readiness) check() bool { return r.ready.Load() }

func runPendingMigrations(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
