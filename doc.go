// Package backend provides the Cinematch API server.

// The binaries live under cmd/:

// - cmd/server: the HTTP API
// - cmd/migrate: schema migrations (up/down)
// - cmd/seed: genre seeding, demo data and cache flushing
// - cmd/cli: command line client for login, rating, search and recommendations

// The server is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/tmdb: TMDB metadata client (lookup, search, discover, similar)
// - internal/recommendations: recommender client and result reconciliation
// - internal/onboarding: preference ingestion pipeline
// - internal/repository: user, movie, preference and impression storage
// - internal/auth: registration, login and session tokens
// - internal/middleware: auth, rate limiting, caching, metrics and tracing
// - internal/database: connection and migrations
// - internal/kernel: dependency container and shutdown hooks

// See the individual package documentation for detailed API reference.
package backend
