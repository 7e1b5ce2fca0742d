package routes

import (
	"log/slog"

	"github.com/BradenHooton/dualauth/internal/auth"
	"github.com/BradenHooton/dualauth/internal/handlers"
	"github.com/BradenHooton/dualauth/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the auth API under /api/auth
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokenValidator auth.TokenValidator,
	rateLimitConfig middleware.RateLimitConfig,
	logger *slog.Logger,
) {
	// one limiter shared by every public endpoint
	limit := middleware.RateLimitByIP(rateLimitConfig)

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes - no authentication required
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/traditional/register", authHandler.RegisterPassword)
			r.Post("/traditional/login", authHandler.LoginPassword)
			r.Post("/blockchain/register", authHandler.RegisterWallet)
			r.Post("/blockchain/login", authHandler.LoginWallet)
		})

		// Protected routes - bearer token required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokenValidator, logger))
			r.Get("/profile", userHandler.Profile)
			r.Get("/verify", userHandler.Verify)
		})
	})
}
