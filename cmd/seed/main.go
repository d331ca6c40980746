package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cinematch/backend/internal/cache"
	"github.com/cinematch/backend/internal/database"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/seed"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/joho/godotenv"
)

// Key prefixes written by the response cache and the genre list cache
var cachePatterns = []string{"response:*", "genres:*"}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	// Parse command
	command := "genres"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	switch command {
	case "genres":
		seedGenres(ctx)
	case "demo":
		seedDemo(ctx)
	case "clean":
		cleanSeed(ctx)
	case "flush-cache":
		flushCache(ctx)
	default:
		fmt.Println("Usage: seed [genres|demo|clean|flush-cache]")
		fmt.Println("  genres      - Upsert the TMDB genre list")
		fmt.Println("  demo        - Store popular movies and fake users with random ratings")
		fmt.Println("                (SEED_USERS, SEED_RATINGS_PER_USER, SEED_POPULAR_PAGES)")
		fmt.Println("  clean       - Remove demo users and their ratings")
		fmt.Println("  flush-cache - Drop cached catalog responses and genres from Redis")
		os.Exit(1)
	}
}

func newSeeder() *seed.Seeder {
	log.Println("🔄 Connecting to database...")
	if err := database.Initialize(database.DSNFromEnv()); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected")

	token := os.Getenv("TMDB_BEARER_TOKEN")
	if token == "" {
		log.Println("⚠️  TMDB_BEARER_TOKEN not set - catalog calls will be rejected")
	}
	catalog := tmdb.NewClient(tmdb.Config{
		BaseURL:     os.Getenv("TMDB_BASE_URL"),
		BearerToken: token,
	})

	var fakerSeed uint64
	if raw := os.Getenv("SEED_RANDOM"); raw != "" {
		fakerSeed, _ = strconv.ParseUint(raw, 10, 64)
	}
	return seed.NewSeeder(database.DB, catalog, fakerSeed)
}

func seedGenres(ctx context.Context) {
	log.Println("🎬 Seeding genres...")
	seeder := newSeeder()
	defer database.Close()

	n, err := seeder.SeedGenres(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Printf("✅ Seeded %d genres", n)
}

func seedDemo(ctx context.Context) {
	log.Println("🌱 Seeding demo data...")
	seeder := newSeeder()
	defer database.Close()

	if _, err := seeder.SeedGenres(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	result, err := seeder.SeedDemo(ctx, seed.DemoOptions{
		Users:          intEnv("SEED_USERS"),
		RatingsPerUser: intEnv("SEED_RATINGS_PER_USER"),
		PopularPages:   intEnv("SEED_POPULAR_PAGES"),
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Seeded %d movies, %d users, %d ratings", result.Movies, result.Users, result.Ratings)
	log.Printf("💡 Demo accounts use the password %q", seed.DemoPassword)
}

func cleanSeed(ctx context.Context) {
	log.Println("🧹 Cleaning demo data...")
	seeder := newSeeder()
	defer database.Close()

	removed, err := seeder.Clean(ctx)
	if err != nil {
		log.Fatalf("❌ Clean failed: %v", err)
	}
	log.Printf("✅ Removed %d demo users", removed)
}

func flushCache(ctx context.Context) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		log.Println("⚠️  REDIS_HOST not set - nothing to flush")
		return
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client, err := cache.NewRedisClient(host, port, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer client.Close()

	total := 0
	for _, pattern := range cachePatterns {
		keys, err := client.ScanKeys(ctx, pattern)
		if err != nil {
			log.Fatalf("❌ Scan of %s failed: %v", pattern, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := client.Del(ctx, keys...); err != nil {
			log.Fatalf("❌ Delete failed: %v", err)
		}
		total += len(keys)
	}
	log.Printf("✅ Flushed %d cache keys", total)
}

func intEnv(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}
