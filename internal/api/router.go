package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/response"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

type Dependencies struct {
	Config  *config.Config
	Service *service.FaceService
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	policy      response.Policy
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	policy := response.PolicyFromConfig(deps.Config)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger, policy),
		AppName:      "facegate",
		BodyLimit:    deps.Config.BodyLimit(),
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
		policy: policy,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	gallery := r.deps.Service.Gallery()

	healthHandler := handler.NewHealthHandler(gallery, r.deps.Service.ProviderName())
	r.app.Get("/", healthHandler.Root)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Per-IP rate limiting; routes registered above are not affected
	if r.deps.Config.RateLimitMax > 0 {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Max:    r.deps.Config.RateLimitMax,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		})
		r.app.Use(r.rateLimiter.Handler())
	}

	faceHandler := handler.NewFaceHandler(r.deps.Service, r.policy, r.logger)
	r.app.Post("/encode", faceHandler.Encode)
	r.app.Post("/verify", faceHandler.Verify)

	identityHandler := handler.NewIdentityHandler(r.deps.Service, r.policy, r.logger)
	r.app.Post("/identities", identityHandler.Enroll)
	r.app.Get("/identities", identityHandler.List)
	r.app.Delete("/identities/:label", identityHandler.Delete)
	r.app.Post("/identify", identityHandler.Identify)
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

	return r.app.ShutdownWithTimeout(10 * time.Second)
}
