package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/pkg/config"
	"github.com/yatube/yatube/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "manage",
		Short:         "Yatube maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newCreateSuperuserCmd(), newClearCacheCmd())
	return root
}

// setup loads configuration and initializes the global logger
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*db.DB, error) {
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(context.Background()); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			logging.GetLogger().Info("Schema is up to date")
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff user that can use the admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}

			cfg, err := setup()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			users := db.NewUserRepository(db.NewRepository(database.DB))
			existing, err := users.GetByUsername(ctx, username)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("user %q already exists", username)
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user := &models.User{
				Username:     username,
				Email:        email,
				PasswordHash: hash,
				IsStaff:      true,
				IsActive:     true,
			}
			if err := users.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			logging.GetLogger().Info("Superuser created", zap.String("username", username), zap.Int64("id", user.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clearcache",
		Short: "Drop every cached page fragment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				logging.GetLogger().Info("Redis not configured, the in-process cache is cleared on restart")
				return nil
			}

			store, err := cache.New(&cfg.Redis)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			logging.GetLogger().Info("Cache cleared")
			return nil
		},
	}
}
