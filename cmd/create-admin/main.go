// Command create-admin bootstraps the administrator account from ADMIN_* settings.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/persistence"
	"github.com/tablebook/reservation-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("POSTGRES_DSN is required to create an admin")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	stores := persistence.NewStores(pg, nil)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  stores.Users,
		Blacklist: stores.Blacklist,
		Logger:    logger,
	})

	user, created, err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}
	if created {
		logger.Info("admin created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
		return
	}
	logger.Info("admin already exists", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
}
