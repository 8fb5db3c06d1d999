// Package main is the StorePulse entry point: a store activity tracking
// and reporting service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/goatkit/storepulse/internal/auth"
	"github.com/goatkit/storepulse/internal/config"
	"github.com/goatkit/storepulse/internal/database"
	"github.com/goatkit/storepulse/internal/repository"
	"github.com/goatkit/storepulse/internal/routing"
	"github.com/goatkit/storepulse/internal/runner"
	"github.com/goatkit/storepulse/internal/runner/tasks"
	"github.com/goatkit/storepulse/internal/service"
)

var (
	// Version information (set during build).
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "storepulse",
		Short:   "Store activity tracking and reporting service",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background reclaimer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect(configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			log.Printf("schema up to date (%s)", cfg.Database.Driver)
			return nil
		},
	}

	reclaimCmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Run one inactive session sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect(configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			tracking := service.NewTrackingService(
				repository.NewPresenceRepository(db),
				repository.NewEventRepository(db),
				cfg.Tracking,
			)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			removed := tracking.SweepNow(ctx)
			log.Printf("removed %d inactive session(s)", removed)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, reclaimCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect(configPath string) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func serve(configPath string) error {
	cfg, db, err := connect(configPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		return err
	}
	cancel()

	presenceRepo := repository.NewPresenceRepository(db)
	eventRepo := repository.NewEventRepository(db)
	reportRepo := repository.NewReportRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	tracking := service.NewTrackingService(presenceRepo, eventRepo, cfg.Tracking)
	reporting := service.NewReportingService(presenceRepo, eventRepo, reportRepo, catalogRepo, cfg.Tracking)
	export := service.NewExportService(eventRepo)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret)

	engine := routing.New(cfg, routing.Deps{
		Tracking:  tracking,
		Reporting: reporting,
		Export:    export,
		Catalog:   catalogRepo,
		JWT:       jwtManager,
	})

	// The sweep cadence follows the inactivity threshold unless the runner
	// interval overrides it.
	interval := cfg.Runner.ReclaimInterval
	if interval <= 0 {
		interval = tracking.Threshold()
	}
	bg := runner.New()
	if err := bg.Register(tasks.NewPresenceReclaimTask(tracking, interval)); err != nil {
		return err
	}
	bg.Start()

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	<-bg.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Final sweep so a clean restart does not inherit stale presence rows.
	// The scheduler usually holds the throttle claim, so bypass it.
	tracking.SweepNow(shutdownCtx)
	log.Println("shutdown complete")
	return nil
}
