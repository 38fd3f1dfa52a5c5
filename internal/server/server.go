package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "idportal/docs" // swagger docs
	"idportal/internal/bootstrap"
	"idportal/internal/cache"
	"idportal/internal/config"
	"idportal/internal/database"
	"idportal/internal/featureflags"
	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/repository"
	"idportal/internal/service"
	"idportal/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	replica        *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	kafka          *notifications.KafkaPublisher
	hub            *notifications.Hub
	hubs           []wireableHub
	featureFlags   *featureflags.Manager
	tokens         *service.TokenService
	accounts       *service.AccountService
	applications   *service.ApplicationService
	lostIDs        *service.LostIDService
	tracking       *service.TrackingService
	listings       *service.ListingService
}

// Deps are the already-initialized dependencies of a Server. Replica, Redis
// and Clock are optional; Store defaults to the configured backend.
type Deps struct {
	DB      *gorm.DB
	Replica *gorm.DB
	Redis   *redis.Client
	Store   storage.Store
	Clock   service.Clock
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, Deps{DB: rt.DB, Replica: rt.Replica, Redis: rt.Redis})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	store := deps.Store
	if store == nil {
		var err error
		store, err = storage.New(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	}

	server := &Server{
		config:         cfg,
		db:             deps.DB,
		replica:        deps.Replica,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("idportal-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		tokens:         service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour),
	}

	if deps.Redis != nil {
		server.notifier = notifications.NewNotifier(deps.Redis)
		server.hub = notifications.NewHub()
		server.hubs = []wireableHub{server.hub}
	}

	publisher, err := server.buildPublisher()
	if err != nil {
		return nil, err
	}

	reg := repository.NewRegistry(deps.DB, deps.Replica)
	ids := service.NewIdentifierGenerator(deps.Clock)
	tracking := cache.New(deps.Redis)

	server.accounts = service.NewAccountService(reg, server.tokens, deps.Clock)
	server.applications = service.NewApplicationService(reg, store, ids, server.featureFlags, tracking, publisher)
	server.lostIDs = service.NewLostIDService(reg, store, ids, service.LostIDOptions{
		Fee:         cfg.LostIDFee,
		Nationality: cfg.DefaultNationality,
	}, tracking, publisher)
	server.tracking = service.NewTrackingService(reg, tracking,
		time.Duration(cfg.TrackingCacheTTL)*time.Second, cfg.DefaultNationality)
	server.listings = service.NewListingService(reg)

	return server, nil
}

// buildPublisher selects where status events go. Redis feeds the WebSocket
// hub; Kafka is added on top of it for downstream consumers.
func (s *Server) buildPublisher() (notifications.Publisher, error) {
	switch s.config.EventsBackend {
	case "none":
		return notifications.Discard{}, nil
	case "kafka":
		kp, err := notifications.NewKafkaPublisher(s.config.Brokers(), s.config.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher init failed: %w", err)
		}
		s.kafka = kp
		if s.notifier == nil {
			return kp, nil
		}
		return notifications.Fanout{s.notifier, kp}, nil
	default:
		if s.notifier == nil {
			return notifications.Discard{}, nil
		}
		return s.notifier, nil
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.RequestContext())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.AccessLog())

	// CORS runs before the limiter so rejected requests still carry headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "ID Portal Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public
	limiter := middleware.NewLimiter(s.redis, middleware.RateLimitEnabled(s.config.Env))
	api.Post("/officer/signup", limiter.Handler(middleware.SignupRule), s.OfficerSignup)
	api.Post("/officer/login", limiter.Handler(middleware.LoginRule), s.OfficerLogin)
	api.Post("/admin/login", limiter.Handler(middleware.LoginRule), s.AdminLogin)

	api.Get("/applications/track/:number", limiter.Handler(middleware.TrackRule), s.TrackApplication)
	api.Get("/applications/track-lost/:number", limiter.Handler(middleware.TrackRule), s.TrackLostID)

	// Officer
	api.Post("/applications", s.OfficerRequired(), s.SubmitApplication)
	api.Post("/lost-id-applications", s.OfficerRequired(), s.SubmitLostID)
	api.Get("/citizen/:id", s.OfficerRequired(), s.GetCitizen)

	officer := api.Group("/officer", s.OfficerRequired())
	officer.Get("/applications", s.GetOfficerApplications)
	officer.Put("/applications/:id/card-arrived", s.MarkCardArrived)
	officer.Put("/applications/:id/card-collected", s.MarkCardCollected)
	officer.Get("/lost-id-applications", s.GetOfficerLostIDs)
	officer.Put("/lost-id-applications/:id/card-arrived", s.MarkLostIDCardArrived)
	officer.Put("/lost-id-applications/:id/card-collected", s.MarkLostIDCardCollected)

	// Admin
	admin := api.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)

	admin.Get("/officers/pending", s.GetPendingOfficers)
	admin.Put("/officers/:id/approve", s.ApproveOfficer)
	admin.Put("/officers/:id/reject", s.RejectOfficer)

	// Define /approved BEFORE the generic /:id route
	admin.Get("/applications", s.GetAdminApplications)
	admin.Get("/applications/approved", s.GetApprovedApplications)
	admin.Get("/applications/:id", s.GetApplication)
	admin.Put("/applications/:id/approve", s.ApproveApplication)
	admin.Put("/applications/:id/reject", s.RejectApplication)
	admin.Put("/applications/:id/dispatch", s.DispatchApplication)

	admin.Get("/lost-id-applications", s.GetAdminLostIDs)
	admin.Put("/lost-id-applications/:id/approve", s.ApproveLostID)
	admin.Put("/lost-id-applications/:id/reject", s.RejectLostID)
	admin.Put("/lost-id-applications/:id/dispatch", s.DispatchLostID)

	// WebSocket
	api.Post("/ws/ticket", s.AuthRequired(models.RoleOfficer, models.RoleAdmin), s.IssueWSTicket)
	ws := api.Group("/ws", websocketUpgrade, s.AuthRequired(models.RoleOfficer, models.RoleAdmin))
	ws.Get("/applications", s.StatusFeedHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "idportal-api",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "ID Portal API",
		BodyLimit: (s.config.MaxUploadSizeMB*4 + 1) << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, e.Code, e)
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start wires the hubs and serves until Shutdown.
func (s *Server) Start() error {
	app := s.App()

	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	if s.notifier != nil {
		for _, h := range s.hubs {
			go func(h wireableHub) {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					middleware.Logger.Error("hub wiring stopped",
						slog.String("hub", h.Name()), slog.String("error", err.Error()))
				}
			}(h)
		}
	}

	port := s.config.Port
	if port == "" {
		port = "5000"
	}
	middleware.Logger.Info("server starting", slog.String("port", port), slog.String("env", s.config.Env))
	return app.Listen(":" + port)
}

// Shutdown stops accepting requests, closes live feeds and releases DB and
// Redis handles. Every step runs; their errors are combined.
func (s *Server) Shutdown(ctx context.Context) error {
	var result *multierror.Error

	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
		}
	}
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s shutdown: %w", h.Name(), err))
		}
	}
	if s.kafka != nil {
		s.kafka.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("redis close: %w", err))
		}
	}
	if err := database.Close(s.db, s.replica); err != nil {
		result = multierror.Append(result, fmt.Errorf("database close: %w", err))
	}
	return result.ErrorOrNil()
}
