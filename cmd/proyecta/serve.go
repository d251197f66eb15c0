// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/proyecta/proyecta/internal/auth"
	"github.com/proyecta/proyecta/internal/config"
	"github.com/proyecta/proyecta/internal/httpapi"
	"github.com/proyecta/proyecta/internal/identity"
	identitypg "github.com/proyecta/proyecta/internal/identity/postgres"
	"github.com/proyecta/proyecta/internal/logging"
	"github.com/proyecta/proyecta/internal/observability"
	"github.com/proyecta/proyecta/internal/project"
	projectpg "github.com/proyecta/proyecta/internal/project/postgres"
	"github.com/proyecta/proyecta/internal/store"
	"github.com/proyecta/proyecta/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the JSON API server together with its observability
endpoints, connecting to PostgreSQL and optionally applying pending
migrations first.`,
		RunE: runServe,
	}

	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("proyecta", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	ctx := cmd.Context()

	if autoMigrate, _ := cmd.Flags().GetBool("auto-migrate"); autoMigrate {
		if err := applyMigrations(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	hasher := identity.NewArgon2idHasher()
	roleRepo := identitypg.NewRoleRepository(pool.DB())
	tutorRepo := identitypg.NewTutorRepository(pool.DB())
	studentRepo := identitypg.NewStudentRepository(pool.DB())
	projectRepo := projectpg.NewRepository(pool.DB())

	registry := identity.NewRegistry(pool, roleRepo)

	tutors := identity.NewTutorService(pool, tutorRepo, roleRepo, hasher, cfg.Identity.TutorEmailDomain)
	students := identity.NewStudentService(pool, studentRepo, roleRepo, hasher)
	projects := project.NewService(pool, projectRepo, tutorRepo, studentRepo)

	tokens, err := auth.NewTokenAuthority([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	gate := auth.NewGate(pool, tutors, registry, roleRepo, hasher, tokens)

	obs := observability.NewServer(cfg.Metrics.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrCh, err := obs.Start()
	if err != nil {
		return err
	}

	api := httpapi.NewServer(cfg.Server.Addr, httpapi.Deps{
		Gate:     gate,
		Registry: registry,
		Tutors:   tutors,
		Students: students,
		Projects: projects,
		Metrics:  obs.Metrics(),
		Logger:   logger,
	})
	apiErrCh, err := api.Start()
	if err != nil {
		stopServers(logger, nil, obs)
		return err
	}

	logger.Info("proyecta started",
		"api_addr", api.Addr(),
		"metrics_addr", obs.Addr(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-apiErrCh:
		if err != nil {
			errutil.LogError(logger, "api server failed", err)
		}
	case err := <-obsErrCh:
		if err != nil {
			errutil.LogError(logger, "observability server failed", err)
		}
	case <-ctx.Done():
	}

	return stopServers(logger, api, obs)
}

func applyMigrations(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck // nothing to do with a close failure here

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	logger.Info("migrations applied")
	return nil
}

func stopServers(logger *slog.Logger, api *httpapi.Server, obs *observability.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if api != nil {
		if err := api.Stop(ctx); err != nil {
			errutil.LogError(logger, "api server shutdown failed", err)
			firstErr = err
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			errutil.LogError(logger, "observability server shutdown failed", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
