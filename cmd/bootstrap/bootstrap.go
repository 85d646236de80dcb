package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-intake/config"
	deliveryHttp "nutrition-intake/internal/delivery/http"
	"nutrition-intake/internal/delivery/http/handler"
	"nutrition-intake/internal/delivery/http/middleware"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/infrastructure/cache"
	"nutrition-intake/internal/infrastructure/database"
	"nutrition-intake/internal/infrastructure/llm"
	"nutrition-intake/internal/infrastructure/storage"
	"nutrition-intake/internal/ratelimit"
	"nutrition-intake/internal/repository"
	"nutrition-intake/internal/service"
	"nutrition-intake/internal/usecase"
	"nutrition-intake/pkg/jwt"
	"nutrition-intake/pkg/retry"
	"nutrition-intake/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const limiterCleanupInterval = 10 * time.Minute

// App holds all dependencies for the application
type App struct {
	Config       *config.Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	Server       *http.Server
	Gateway      service.ProfileGateway
	AuditService service.AuditService

	memoryLimiters []*ratelimit.MemoryLimiter
	stop           context.CancelFunc
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	app.Log = setupLogger(cfg.App.LogLevel)
	app.Log.Info("Configuration loaded successfully")

	if cfg.Session.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	if err := database.Migrate(db); err != nil {
		app.Close()
		return nil, err
	}
	app.Log.Info("Database connected successfully")

	// Initialize Redis only when it backs the rate limiter
	if cfg.RateLimit.Backend == config.RateLimitBackendRedis {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		app.Log.Info("Redis connected successfully")
	}

	// Initialize all layers
	if err := app.initialize(context.Background()); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// initialize wires repositories, services, usecases and the HTTP server
func (app *App) initialize(ctx context.Context) error {
	cfg := app.Config
	log := app.Log

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.Session)

	// Initialize validators
	customValidator := validator.NewValidator()
	questions := cfg.Intake.SecurityQuestions
	if len(questions) == 0 {
		questions = entity.DefaultSecurityQuestions
	}
	profileValidator, err := service.NewProfileValidator(questions)
	if err != nil {
		return fmt.Errorf("failed to build profile validator: %w", err)
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize rate limiters
	saveRule := ratelimit.Rule{Limit: cfg.RateLimit.SaveLimit, Window: cfg.RateLimit.SaveWindow}
	recoveryRule := ratelimit.Rule{Limit: cfg.RateLimit.RecoveryLimit, Window: cfg.RateLimit.RecoveryWindow}
	saveLimiter, recoveryLimiter := app.newLimiter(saveRule, "ratelimit:save:"), app.newLimiter(recoveryRule, "ratelimit:recover:")

	// Initialize optional collaborators
	var generator service.TextGenerator
	if cfg.GenAI.APIKey != "" {
		g, err := llm.NewGenAIGenerator(ctx, cfg.GenAI)
		if err != nil {
			return err
		}
		generator = g
	} else {
		log.Warn("GENAI_API_KEY not set, recommendations are disabled")
	}

	var objectStore service.ObjectStore
	if cfg.Storage.Region != "" {
		store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		objectStore = store
	} else {
		log.Warn("STORAGE_REGION not set, test kit uploads are disabled")
	}

	// Initialize services
	auditService := service.NewAuditService(app.DB, log, auditLogRepo)
	retryPolicy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	gateway := service.NewProfileGateway(app.DB, log, profileValidator, profileRepo, auditService, saveLimiter, recoveryLimiter, retryPolicy)
	recommender, err := service.NewRecommendationService(log, generator, cfg.GenAI.PromptFile)
	if err != nil {
		return err
	}
	testKitService := service.NewTestKitService(log, objectStore)

	app.Gateway = gateway
	app.AuditService = auditService

	// Initialize usecases
	intakeUsecase := usecase.NewIntakeUsecase(log, gateway, recommender, testKitService, questions)

	// Initialize handlers
	intakeHandler := handler.NewIntakeHandler(intakeUsecase, jwtService, customValidator)
	healthHandler := handler.NewHealthHandler(app.healthChecks())

	// Initialize middleware
	sessionMiddleware := middleware.NewSessionMiddleware(jwtService)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowedOrigins)
	loggingMiddleware := middleware.NewLoggingMiddleware(log, cfg.App.SlowRequestThreshold)

	// Initialize router
	router := deliveryHttp.NewRouter(intakeHandler, healthHandler, sessionMiddleware, corsMiddleware, loggingMiddleware)

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

func (app *App) newLimiter(rule ratelimit.Rule, keyPrefix string) ratelimit.Limiter {
	if app.RedisClient != nil {
		return ratelimit.NewRedisLimiter(app.RedisClient, rule, keyPrefix)
	}
	limiter := ratelimit.NewMemoryLimiter(rule)
	app.memoryLimiters = append(app.memoryLimiters, limiter)
	return limiter
}

func (app *App) healthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			return database.Ping(ctx, app.DB)
		},
	}
	if app.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.RedisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	ctx, stop := context.WithCancel(context.Background())
	app.stop = stop
	go app.cleanupLimiters(ctx)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// cleanupLimiters drops expired in-process rate limit entries
func (app *App) cleanupLimiters(ctx context.Context) {
	if len(app.memoryLimiters) == 0 {
		return
	}

	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, limiter := range app.memoryLimiters {
				limiter.Cleanup()
			}
		}
	}
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.stop != nil {
		app.stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
