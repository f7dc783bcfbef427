package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shredlink/shredlink/internal/app/service"
	"github.com/shredlink/shredlink/internal/http/handler"
	"github.com/shredlink/shredlink/internal/http/middleware"
	"github.com/shredlink/shredlink/internal/ratelimit"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs.
type Dependencies struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Limiter     ratelimit.Limiter

	// CreatePerMinute is the admission quota surfaced in rate-limit headers.
	CreatePerMinute int

	// PublicDir holds the static browser UI (index.html, unlock.html).
	PublicDir string

	// Postgres is optional; only set when the postgres driver is configured.
	Postgres *pgxpool.Pool
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS())

	var createLimit fiber.Handler
	if s.deps.Limiter != nil {
		createLimit = middleware.CreateRateLimit(s.deps.Limiter, s.deps.CreatePerMinute, s.deps.Logger)
	}

	apiHandler := handler.NewAPIHandler(handler.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.LinkService,
	})
	apiHandler.Register(s.app, createLimit)

	shareHandler := handler.NewShareHandler(handler.ShareDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.LinkService,
		Postgres:    s.deps.Postgres,
	})
	shareHandler.Register(s.app)

	if s.deps.PublicDir != "" {
		s.app.Static("/", s.deps.PublicDir, fiber.Static{
			Index: "index.html",
		})
	}
}
