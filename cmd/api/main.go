package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/tablebook/reservation-service/internal/api/http"
	"github.com/tablebook/reservation-service/internal/api/http/handlers"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/persistence"
	"github.com/tablebook/reservation-service/internal/service"
	"github.com/tablebook/reservation-service/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	stores := persistence.NewStores(pg, redis)
	if stores.Backend == "memory" {
		logger.Warn("POSTGRES_DSN not set, data is kept in memory and lost on restart")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  stores.Users,
		Blacklist: stores.Blacklist,
		Metrics:   metrics,
		Logger:    logger,
	})
	tableService := service.NewTableService(service.TableDependencies{
		TableRepo:  stores.Tables,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      time.Now,
	})
	reservationService := service.NewReservationService(service.ReservationDependencies{
		ReservationRepo: stores.Reservations,
		TableRepo:       stores.Tables,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		Clock:           time.Now,
		Location:        cfg.App.Location(),
	})

	app := httptransport.NewApp(cfg.App.Name, httptransport.AppDependencies{
		Logger:  logger,
		Metrics: metrics,
		Timeout: cfg.App.RequestTimeout(),
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tables:         handlers.NewTablesHandler(tableService, reservationService),
		Admin:          handlers.NewAdminHandler(tableService, reservationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), stores.Users),
		RateLimiter:    auth.NewIPRateLimiter(cfg.Auth.RateLimitPerMinute),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", stores.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
