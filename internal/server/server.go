// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fixpoint/internal/cache"
	"fixpoint/internal/config"
	"fixpoint/internal/database"
	"fixpoint/internal/jobs"
	fixlimiter "fixpoint/internal/limiter"
	"fixpoint/internal/middleware"
	"fixpoint/internal/models"
	"fixpoint/internal/notifications"
	"fixpoint/internal/repository"
	"fixpoint/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "fixpoint-api"
	tokenAudience = "fixpoint-client"

	loginFailureMax    = 5
	loginFailureWindow = 15 * time.Minute
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	requestRepo repository.RequestRepository
	blogRepo    repository.BlogRepository
	serviceRepo repository.ServiceRepository
	contactRepo repository.ContactRepository
	settingRepo repository.SettingRepository

	loginLimiter *fixlimiter.LoginLimiter
	publisher    notifications.Publisher
	consumer     *notifications.Consumer
	scheduler    *jobs.Scheduler

	authService    *service.AuthService
	requestService *service.RequestService
	userService    *service.UserService
	blogService    *service.BlogService
	catalogService *service.CatalogService
	contactService *service.ContactService
	siteService    *service.SiteService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	var publisher notifications.Publisher
	if p := notifications.NewAMQPPublisher(cfg.AMQPURL); p != nil {
		publisher = p
	}
	mailer := notifications.NewMailer(cfg.SendgridAPIKey, cfg.MailFrom)

	server := newServerWithDeps(cfg, db, cache.GetClient(), publisher)
	server.consumer = notifications.NewConsumer(cfg.AMQPURL, mailer)
	server.scheduler = jobs.NewScheduler(server.loginLimiter, server.requestService)
	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Used by tests; no broker consumer or scheduler is attached.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, publisher notifications.Publisher) (*Server, error) {
	return newServerWithDeps(cfg, db, redisClient, publisher), nil
}

func newServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, publisher notifications.Publisher) *Server {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("fixpoint-api"),
		userRepo:       repository.NewUserRepository(db),
		requestRepo:    repository.NewRequestRepository(db),
		blogRepo:       repository.NewBlogRepository(db),
		serviceRepo:    repository.NewServiceRepository(db),
		contactRepo:    repository.NewContactRepository(db),
		settingRepo:    repository.NewSettingRepository(db),
		loginLimiter:   fixlimiter.NewLoginLimiter(loginFailureMax, loginFailureWindow),
		publisher:      publisher,
	}

	server.authService = service.NewAuthService(server.userRepo, server.loginLimiter, cfg.JWTSecret)
	server.requestService = service.NewRequestService(server.requestRepo, server.userRepo, publisher, cfg.ServiceAddress)
	server.userService = service.NewUserService(server.userRepo)
	server.blogService = service.NewBlogService(server.blogRepo)
	server.catalogService = service.NewCatalogService(server.serviceRepo)
	server.contactService = service.NewContactService(server.contactRepo)
	server.siteService = service.NewSiteService(server.requestRepo, server.userRepo, server.contactRepo, server.settingRepo)
	return server
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// OpenTelemetry spans, then structured logging (after requestid/context)
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
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

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Public service-request routes
	requests := api.Group("/service-requests")
	requests.Post("/anonymous", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "anonymous_request"), s.CreateAnonymousRequest)
	requests.Get("/track", s.TrackRequest)

	// Protected service-request routes
	requests.Post("/", s.AuthRequired(), s.CreateRequest)
	requests.Get("/", s.AuthRequired(), s.ListRequests)
	requests.Get("/:id", s.AuthRequired(), s.GetRequest)
	requests.Patch("/:id", s.AuthRequired(), s.AdminRequired(), s.UpdateRequestStatus)

	// Public content routes
	blog := api.Group("/blog")
	blog.Get("/posts", s.ListPosts)
	blog.Get("/posts/:slug", s.GetPostBySlug)
	blog.Get("/categories", s.ListCategories)

	api.Get("/services", s.ListServices)

	api.Post("/contact", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "contact"), s.SubmitContactMessage)

	// Authenticated profile routes
	protected := api.Group("", s.AuthRequired())
	protected.Put("/users/me", s.UpdateMyProfile)
	protected.Put("/users/me/password", s.ChangeMyPassword)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/dashboard", s.Dashboard)

	adminUsers := admin.Group("/users")
	adminUsers.Get("/", s.ListUsers)
	adminUsers.Get("/:id", s.GetUser)
	adminUsers.Put("/:id/role", s.SetUserRole)
	adminUsers.Delete("/:id", s.DeleteUser)

	adminBlog := admin.Group("/blog")
	adminBlog.Post("/posts", s.CreatePost)
	adminBlog.Put("/posts/:id", s.UpdatePost)
	adminBlog.Delete("/posts/:id", s.DeletePost)
	adminBlog.Post("/categories", s.CreateCategory)
	adminBlog.Delete("/categories/:id", s.DeleteCategory)

	adminServices := admin.Group("/services")
	adminServices.Post("/", s.CreateService)
	adminServices.Put("/:id", s.UpdateService)
	adminServices.Delete("/:id", s.DeleteService)

	adminContact := admin.Group("/contact")
	adminContact.Get("/", s.ListContactMessages)
	adminContact.Post("/:id/read", s.MarkContactMessageRead)
	adminContact.Delete("/:id", s.DeleteContactMessage)

	adminSettings := admin.Group("/settings")
	adminSettings.Get("/", s.ListSettings)
	adminSettings.Get("/:key", s.GetSetting)
	adminSettings.Put("/:key", s.PutSetting)
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
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The cache is optional; report it but do not fail readiness.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. It validates the Bearer
// token and stores userID and role in locals for downstream handlers.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		role := models.RoleUser
		if roleClaim, roleOk := claims["role"].(string); roleOk && models.Role(roleClaim).Valid() {
			role = models.Role(roleClaim)
		}

		c.Locals("userID", uint(userID))
		c.Locals("role", role)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the role is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if callerRole(c) != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// optionalUserID extracts the caller's user ID from the Authorization header
// without enforcing authentication. Used by routes open to anonymous callers
// that still need to know whether a session is present.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// roleFromToken returns the role claim from an optional Bearer token,
// defaulting to USER when no valid session is present.
func (s *Server) roleFromToken(c *fiber.Ctx) models.Role {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return models.RoleUser
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.RoleUser
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.RoleUser
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.RoleUser
	}
	if roleClaim, ok := claims["role"].(string); ok && models.Role(roleClaim).Valid() {
		return models.Role(roleClaim)
	}
	return models.RoleUser
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "FixPoint API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "Unhandled handler error",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.consumer != nil {
		go s.consumer.Run(s.shutdownCtx)
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("scheduler start failed: %w", err)
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
