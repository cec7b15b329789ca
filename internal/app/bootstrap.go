package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"raid-recruit/internal/config"
	"raid-recruit/internal/delivery/http/handler"
	"raid-recruit/internal/delivery/http/middleware"
	"raid-recruit/internal/delivery/http/routes"
	v1 "raid-recruit/internal/delivery/http/routes/v1"
	"raid-recruit/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:         c.Config.App.AppName,
		StructValidator: middleware.NewStructValidator(),
	})

	registerGlobalMiddleware(f, c.Config, c.Logger)

	authMw := middleware.NewAuthMiddleware(c.JWT)
	handlers := v1.Handlers{
		Auth:        handler.NewAuthHandler(c.AuthUC),
		User:        handler.NewUserHandler(c.UserUC),
		Listing:     handler.NewListingHandler(c.ListingUC),
		Application: handler.NewApplicationHandler(c.ApplicationUC),
		Search:      handler.NewSearchHandler(c.UserUC, c.RecommendationUC),
		WS:          ws.NewHandler(c.Hub, c.Logger),
	}
	routes.NewRegistry(handler.NewHealthHandler(c.DB, c.Cache), handlers, authMw).Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap connects dependencies, applies migrations and seeds when
// configured, and starts the websocket hub. The returned cleanup closes
// everything Bootstrap opened.
func Bootstrap(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.RunMigrations {
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.Database.RunSeeders {
		if err := c.Seed(ctx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	go c.Hub.Run(hubCtx)

	cleanup := func() error {
		stopHub()
		return c.Close()
	}
	return New(c), cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, cfg config.Config, logger *log.Logger) {
	if app == nil {
		return
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		AllowMethods:     []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: false,
	}))
	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
