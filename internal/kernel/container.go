// Package kernel holds the long-lived collaborators of the server and their
// shutdown hooks.
package kernel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cinematch/backend/internal/auth"
	"github.com/cinematch/backend/internal/cache"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/onboarding"
	"github.com/cinematch/backend/internal/recommendations"
	"github.com/cinematch/backend/internal/tmdb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kernel holds all application dependencies and provides type-safe access.
// It implements the Service Locator pattern with additional lifecycle management.
type Kernel struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient

	// Upstream clients
	catalog *tmdb.Client
	engine  *recommendations.EngineClient

	// Domain services
	auth            auth.ServiceInterface
	recommendations *recommendations.Service
	onboarding      *onboarding.Pipeline

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty kernel.
// Services should be registered using Set* methods.
func New() *Kernel {
	return &Kernel{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// SetDB registers the database connection
func (c *Kernel) SetDB(db *gorm.DB) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Kernel) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Kernel) SetLogger(l *zap.Logger) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance
func (c *Kernel) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggerLocked()
}

func (c *Kernel) loggerLocked() *zap.Logger {
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the Redis client. Nil means caching is disabled.
func (c *Kernel) SetCache(client *cache.RedisClient) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, or nil
func (c *Kernel) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetCatalog registers the TMDB client
func (c *Kernel) SetCatalog(client *tmdb.Client) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = client
	return c
}

// Catalog returns the TMDB client
func (c *Kernel) Catalog() *tmdb.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

// SetEngine registers the recommendation engine client
func (c *Kernel) SetEngine(client *recommendations.EngineClient) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = client
	return c
}

// Engine returns the recommendation engine client
func (c *Kernel) Engine() *recommendations.EngineClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
}

// SetAuthService registers the authentication service
func (c *Kernel) SetAuthService(service auth.ServiceInterface) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = service
	return c
}

// Auth returns the authentication service
func (c *Kernel) Auth() auth.ServiceInterface {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// SetRecommendations registers the recommendation orchestrator
func (c *Kernel) SetRecommendations(service *recommendations.Service) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recommendations = service
	return c
}

// Recommendations returns the recommendation orchestrator
func (c *Kernel) Recommendations() *recommendations.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recommendations
}

// SetOnboarding registers the preference ingestion pipeline
func (c *Kernel) SetOnboarding(pipeline *onboarding.Pipeline) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onboarding = pipeline
	return c
}

// Onboarding returns the preference ingestion pipeline
func (c *Kernel) Onboarding() *onboarding.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onboarding
}

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions run in LIFO order.
func (c *Kernel) OnCleanup(fn func(context.Context) error) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs every registered cleanup function in reverse order of
// registration. Failures are logged and do not stop the remaining hooks; the
// first one is returned.
func (c *Kernel) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			c.loggerLocked().Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	c.cleanupFuncs = c.cleanupFuncs[:0]
	return first
}

// InitializationError lists the dependencies that were never registered
type InitializationError struct {
	Message string
	Missing []string
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
}

// Validate checks that all required dependencies are registered.
// Call it after initialization and before starting the server.
func (c *Kernel) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database (DB)")
	}
	if c.catalog == nil {
		missing = append(missing, "TMDB client")
	}
	if c.engine == nil {
		missing = append(missing, "recommendation engine client")
	}
	if c.auth == nil {
		missing = append(missing, "auth service")
	}
	if c.recommendations == nil {
		missing = append(missing, "recommendation service")
	}
	if c.onboarding == nil {
		missing = append(missing, "onboarding pipeline")
	}
	if len(missing) > 0 {
		return &InitializationError{Message: "Missing required dependencies", Missing: missing}
	}

	if c.cache == nil {
		c.loggerLocked().Warn("Redis cache not configured, catalog responses will not be cached")
	}
	return nil
}
