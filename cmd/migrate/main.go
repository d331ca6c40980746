package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cinematch/backend/internal/database"
	"github.com/cinematch/backend/internal/logger"
	"github.com/joho/godotenv"
)

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
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "down":
		runMigrationsDown()
	default:
		fmt.Println("Usage: migrate [up|down]")
		fmt.Println("  up   - Create or update every table and index")
		fmt.Println("  down - Drop every table (destroys all data)")
		os.Exit(1)
	}
}

func connect() {
	log.Println("🔄 Connecting to database...")
	if err := database.Initialize(database.DSNFromEnv()); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected")
}

func runMigrationsUp() {
	connect()
	defer database.Close()

	log.Println("📈 Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ All migrations completed successfully!")
}

func runMigrationsDown() {
	if os.Getenv("MIGRATE_CONFIRM") != "yes" {
		log.Println("❌ Refusing to drop tables without MIGRATE_CONFIRM=yes")
		os.Exit(1)
	}

	connect()
	defer database.Close()

	log.Println("📉 Dropping tables...")
	if err := database.Rollback(); err != nil {
		log.Fatalf("❌ Rollback failed: %v", err)
	}

	log.Println("✅ Rollback completed")
}
