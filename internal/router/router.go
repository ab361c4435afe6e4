package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/handler"
	"github.com/noah-isme/skillfolio-api/internal/middleware"
	"github.com/noah-isme/skillfolio-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler     *handler.ActivityHandler
	VerificationHandler *handler.VerificationHandler
	StudentHandler      *handler.StudentHandler
	DocumentHandler     *handler.DocumentHandler
	JWKS                []byte
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	app.Get("/.well-known/jwks.json", handler.JWKSHandler(deps.JWKS))

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/v1/health", handler.HealthCheck(cfg))

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities"))
	}

	if deps.VerificationHandler != nil {
		verify := api.Group("/verify", middleware.RateLimitByIP("verify", cfg.VerifyRateLimit, 0))
		deps.VerificationHandler.Register(verify)
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students"))
	}

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(app.Group(cfg.Storage.LocalPublicPrefix))
	}
}
