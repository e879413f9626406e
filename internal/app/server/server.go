package server

import (
	"context"
	"time"

	"github.com/codetag-io/codetag/config"
	"github.com/codetag-io/codetag/internal/app/repository"
	"github.com/codetag-io/codetag/internal/app/service"
	inthttp "github.com/codetag-io/codetag/internal/http/handler"
	"github.com/codetag-io/codetag/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger        *zap.Logger
	Config        *config.Config
	Postgres      *pgxpool.Pool
	Redis         *redis.Client
	NATS          *nats.Conn
	JetStream     nats.JetStreamContext
	Accounts      repository.AccountRepository
	QRCodes       service.QRCodeService
	Billing       *service.BillingService
	Filter        *service.ShortCodeFilter
	CodeRepo      repository.QRCodeRepository
	ScanPublisher *service.ScanPublisher
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
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

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())

	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, s.rateLimitConfig(), s.deps.Logger))
	}
}

func (s *Server) rateLimitConfig() middleware.RateLimitConfig {
	cfg := middleware.DefaultRateLimitConfig()
	if s.deps.Config != nil {
		if s.deps.Config.Server.RateLimit > 0 {
			cfg.MaxRequests = s.deps.Config.Server.RateLimit
		}
		if s.deps.Config.Server.RateWindowMS > 0 {
			cfg.Window = time.Duration(s.deps.Config.Server.RateWindowMS) * time.Millisecond
		}
	}
	return cfg
}

func (s *Server) registerRoutes() {
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:        s.deps.Logger,
		Codes:         s.deps.CodeRepo,
		Filter:        s.deps.Filter,
		ScanPublisher: s.deps.ScanPublisher,
	})
	redirectHandler.Register(s.app)

	webhookHandler := inthttp.NewWebhookHandler(inthttp.WebhookDeps{
		Logger:        s.deps.Logger,
		Billing:       s.deps.Billing,
		SigningSecret: s.deps.Config.Stripe.WebhookSecret,
	})
	webhookHandler.Register(s.app)

	// Everything under /api requires a resolved account. The redirect and
	// webhook surfaces stay public.
	api := s.app.Group("/api", middleware.RequireAccount(s.deps.Accounts, s.deps.Logger))
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:    s.deps.Logger,
		QRCodes:   s.deps.QRCodes,
		Billing:   s.deps.Billing,
		PublicURL: s.deps.Config.Server.PublicURL,
		MaxSize:   s.deps.Config.Render.MaxSize,
	})
	apiHandler.Register(api)
}
