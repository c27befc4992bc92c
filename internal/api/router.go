package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/idverify/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/idverify/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/idverify/internal/api/middleware"
)

type Dependencies struct {
	Verification handler.AadhaarVerifier
	Comparison   handler.FaceComparer
	RateLimit    middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "idverify API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.RequestContext())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints, never rate limited
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	// Rate limiting per client IP
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	limit := r.rateLimiter.Handler()

	if r.deps.Verification != nil {
		aadhaarHandler := handler.NewAadhaarHandler(r.deps.Verification, r.logger)
		r.app.Post("/validate-aadhaar", middleware.SuccessEnvelope(), limit, aadhaarHandler.Validate)
	}

	if r.deps.Comparison != nil {
		compareHandler := handler.NewCompareHandler(r.deps.Comparison, r.logger)
		r.app.Get("/compare-faces", limit, compareHandler.Compare)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
