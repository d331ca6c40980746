package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinematch/backend/internal/auth"
	"github.com/cinematch/backend/internal/cache"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/database"
	"github.com/cinematch/backend/internal/handlers"
	"github.com/cinematch/backend/internal/kernel"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/middleware"
	"github.com/cinematch/backend/internal/onboarding"
	"github.com/cinematch/backend/internal/recommendations"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/telemetry"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const catalogCacheTTL = 10 * time.Minute

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		_ = logger.Initialize("info", "")
		logger.FatalWithFields("Invalid configuration", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	if envErr != nil {
		logger.Log.Info(".env file not found, using system environment variables")
	}
	logger.Log.Info("=== Cinematch server starting ===", zap.String("environment", cfg.Environment))

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName: "cinematch-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	k, err := buildKernel(cfg)
	if err != nil {
		logger.FatalWithFields("Failed to initialize services", err)
	}
	k.OnCleanup(func(ctx context.Context) error { return telemetry.Shutdown(ctx, tp) })

	if err := k.Validate(); err != nil {
		logger.FatalWithFields("Kernel validation failed", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, k),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := k.Cleanup(ctx); err != nil {
		logger.WarnWithFields("Cleanup finished with errors", err)
	}
	logger.Log.Info("Server exited")
}

// buildKernel connects every collaborator. Redis is optional.
func buildKernel(cfg *config.Config) (*kernel.Kernel, error) {
	k := kernel.New().SetLogger(logger.Log)

	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		return nil, err
	}
	k.SetDB(database.DB)
	k.OnCleanup(func(context.Context) error { return database.Close() })

	if cfg.RedisHost != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, continuing without cache", err)
		} else {
			k.SetCache(redisClient)
			k.OnCleanup(func(context.Context) error { return redisClient.Close() })
		}
	}

	catalog := tmdb.NewClient(tmdb.Config{
		BaseURL:     cfg.TMDBBaseURL,
		BearerToken: cfg.TMDBBearerToken,
		Timeout:     cfg.TMDBTimeout,
	})
	engine := recommendations.NewEngineClient(recommendations.EngineConfig{
		BaseURL: cfg.RecEngineURL,
		Timeout: cfg.RecEngineTimeout,
	})
	k.SetCatalog(catalog).SetEngine(engine)

	users := repository.NewUserRepository(database.DB)
	movies := repository.NewMovieRepository(database.DB)
	preferences := repository.NewPreferenceRepository(database.DB)
	impressions := repository.NewImpressionRepository(database.DB)

	k.SetAuthService(auth.NewService(users, cfg.JWTSecret))
	k.SetRecommendations(recommendations.NewService(engine, catalog, preferences, movies, users,
		recommendations.WithImpressionRecorder(impressions),
	))
	k.SetOnboarding(onboarding.NewPipeline(users, movies, preferences, catalog))

	return k, nil
}

func newRouter(cfg *config.Config, k *kernel.Kernel) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.TracingMiddleware("cinematch-backend"))
	r.Use(middleware.SpanAttributesMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "X-Cache"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// nil when Redis is off; a nil CacheManager always misses
	var cm *middleware.CacheManager
	redisClient := k.Cache()
	if redisClient != nil {
		cm = middleware.NewCacheManager(redisClient)
	}

	users := repository.NewUserRepository(k.DB())
	movies := repository.NewMovieRepository(k.DB())

	h := handlers.NewHandlers(k.Auth())
	h.SetCatalog(k.Catalog(), movies)
	h.SetRecommender(k.Recommendations())
	h.SetOnboarding(k.Onboarding(), users)
	h.SetCacheManager(cm)
	h.AddHealthCheck("database", func(context.Context) error { return database.Health() })
	h.AddHealthCheck("recommender", k.Engine().Health)
	if redisClient != nil {
		h.AddHealthCheck("redis", redisClient.Ping)
	}

	requireAuth := middleware.AuthMiddleware(k.Auth())
	authLimit := middleware.RedisRateLimitMiddleware(redisClient, "auth", middleware.AuthRateLimitConfig())
	catalogLimit := middleware.RedisRateLimitMiddleware(redisClient, "catalog", middleware.CatalogRateLimitConfig())
	catalogCache := middleware.ResponseCacheMiddleware(cm, catalogCacheTTL)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authLimit, h.Register)
			authGroup.POST("/login", authLimit, h.Login)
			authGroup.GET("/profile", requireAuth, h.GetProfile)
			authGroup.PUT("/profile", requireAuth, h.UpdateProfile)
			authGroup.PUT("/change-password", requireAuth, authLimit, h.ChangePassword)
		}

		userGroup := api.Group("/user", requireAuth)
		{
			userGroup.POST("/preferences", h.SavePreferences)
			userGroup.POST("/onboarding-completed", h.MarkOnboardingCompleted)
		}

		api.GET("/genres", h.GetGenres)

		catalogGroup := api.Group("", catalogLimit, catalogCache)
		{
			catalogGroup.GET("/search", h.Search)
			catalogGroup.GET("/genre", h.GenreMovies)
			catalogGroup.GET("/popular", h.PopularMovies)
			catalogGroup.GET("/similar", h.SimilarMovies)
			catalogGroup.GET("/movie/:tmdbId", h.MovieDetails)
		}

		recGroup := api.Group("/recommendations", requireAuth)
		{
			recGroup.POST("", h.GetRecommendations)
			recGroup.GET("", h.GetRecommendations)
			recGroup.GET("/content", h.GetContentRecommendations)
		}
	}

	return r
}
