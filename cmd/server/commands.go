package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/auth"
	"github.com/VishalMahato/LifeLine-sub001/internal/database"
	"github.com/VishalMahato/LifeLine-sub001/internal/events"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
	"github.com/VishalMahato/LifeLine-sub001/internal/router"
	"github.com/VishalMahato/LifeLine-sub001/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config
	root := &cobra.Command{
		Use:           "lifeline",
		Short:         "LifeLine emergency-response backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load()
			return err
		},
	}
	serve := newServeCmd(func() *config.Config { return cfg })
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newMigrateCmd(func() *config.Config { return cfg }),
		newCleanupCmd(func() *config.Config { return cfg }),
		newTokenCmd(func() *config.Config { return cfg }),
	)
	return root
}

// connect opens the database with the startup retry loop and migrates it.
func connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.ConnectWithRetry(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	rdb, err := events.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	app := router.Setup(cfg, db, rdb)
	bg, stop := context.WithCancel(ctx)
	defer stop()
	go app.Bus.Run(bg)
	go app.Limiter.RunCleanup(bg)
	if cfg.Maintenance.CleanupInterval > 0 {
		go app.Cleaner.RunEvery(bg, cfg.Maintenance.CleanupInterval)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Println("server stopped")
	return nil
}

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := connect(cmd.Context(), cfg()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newCleanupCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete locations whose helper no longer exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect(cmd.Context(), cfg())
			if err != nil {
				return err
			}
			cleaner := service.NewCleaner(repository.NewLocationRepository(db), repository.NewHelperRepository(db))
			n, err := cleaner.CleanupOrphans(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned locations\n", n)
			return nil
		},
	}
}

func newTokenCmd(cfg func() *config.Config) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an access token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			tok, err := auth.GenerateAccessToken(&cfg().JWT, uint(id), role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "user", "role claim (user, helper, ngo, admin)")
	return cmd
}
