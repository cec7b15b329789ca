package v1

import (
	"raid-recruit/internal/delivery/http/handler"
	"raid-recruit/internal/delivery/http/middleware"
	"raid-recruit/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Listing     *handler.ListingHandler
	Application *handler.ApplicationHandler
	Search      *handler.SearchHandler
	WS          *ws.Handler
}

// Register mounts the v1 API. r is expected to carry optional auth, so
// handlers see the user when a token is sent; groups that are useless
// anonymously get the strict middleware on top.
func Register(r fiber.Router, h Handlers, authMw *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	if h.Auth != nil {
		h.Auth.RegisterRoutes(r)
	}
	if h.User != nil {
		h.User.RegisterRoutes(r)
	}
	if h.Listing != nil {
		h.Listing.RegisterRoutes(r)
	}
	if h.Application != nil {
		h.Application.RegisterRoutes(r.Group("/applications", authMw.Middleware()))
	}
	if h.Search != nil {
		h.Search.RegisterRoutes(r.Group("/search", authMw.Middleware()))
	}
	if h.WS != nil {
		h.WS.RegisterRoutes(r)
	}
}
