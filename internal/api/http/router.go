package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/api/http/handlers"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tables         *handlers.TablesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *auth.IPRateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Fiber's default non-strict routing accepts a trailing slash.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	requireUser := auth.RequireAuthenticated()

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.RateLimiter.Handle, cfg.Auth.Signup)
	authGroup.Post("/login", cfg.RateLimiter.Handle, cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, requireUser, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, requireUser, cfg.Auth.Me)
	authGroup.Patch("/me", cfg.AuthMiddleware.Handle, requireUser, cfg.Auth.UpdateMe)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, requireUser, cfg.Auth.ChangePassword)

	tables := app.Group("/tables", cfg.AuthMiddleware.Handle, requireUser)
	tables.Get("/", cfg.Tables.Available)
	tables.Get("/history", cfg.Tables.History)
	tables.Post("/:id/reserve", cfg.Tables.Reserve)
	tables.Delete("/:id/cancel", cfg.Tables.Cancel)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/tables", cfg.Admin.ListTables)
	admin.Post("/tables", cfg.Admin.CreateTable)
	admin.Get("/tables/:id", cfg.Admin.GetTable)
	admin.Put("/tables/:id", cfg.Admin.ReplaceTable)
	admin.Patch("/tables/:id", cfg.Admin.PatchTable)
	admin.Delete("/tables/:id", cfg.Admin.DeleteTable)
	admin.Get("/reservations", cfg.Admin.ListReservations)
}

// AppDependencies carries the ambient collaborators shared by every route.
type AppDependencies struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Timeout time.Duration
}

// NewApp builds the fiber application with middlewares and routes registered.
func NewApp(name string, deps AppDependencies, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		ErrorHandler: ErrorHandler(deps.Logger, deps.Metrics),
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, deps.Timeout)
	RegisterRoutes(app, routes)
	return app
}
