package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/diutransit/reminder_core/internal/cache"
	"github.com/diutransit/reminder_core/internal/db"
	"github.com/diutransit/reminder_core/internal/store"
	"github.com/diutransit/reminder_core/internal/syncer"
)

func main() {
	// Command-line flags
	baseURL := flag.String("remote", "", "Base URL of the remote schedule document store (required)")
	timeout := flag.Duration("timeout", 10*time.Second, "Remote request timeout")
	force := flag.Bool("force", false, "Replace the local schedule even if the remote version is not newer")

	flag.Parse()

	_ = godotenv.Load()

	if *baseURL == "" {
		*baseURL = os.Getenv("REMOTE_BASE_URL")
	}
	if *baseURL == "" {
		fmt.Println("Usage: diutransit-sync --remote=<url> [--timeout=10s] [--force]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Println("Starting schedule sync...")
	log.Printf("Remote: %s", *baseURL)

	// Initialize database connection
	pool, err := db.GetDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis connection
	rdb, err := cache.GetClient()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()

	scheduleStore := store.NewScheduleStore(pool)
	if err := scheduleStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	versions := syncer.NewRedisVersions(rdb)
	if *force {
		// Resetting the local version makes any remote version count as newer
		if err := versions.SetLocalVersion(ctx, 0); err != nil {
			log.Fatalf("Failed to reset local version: %v", err)
		}
		log.Println("Local version reset, forcing full sync")
	}

	s := syncer.New(syncer.NewClient(*baseURL, *timeout), scheduleStore, versions, store.NewWatcher())

	res, err := s.SyncIfNeeded(ctx)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}

	if !res.Updated {
		log.Printf("Already up to date (version %d)", res.Version)
		return
	}

	log.Println("=== Sync Complete ===")
	log.Printf("Version: %d", res.Version)
	log.Printf("Entries: %d", res.EntryCount)
	if res.Message != "" {
		log.Printf("Message: %s", res.Message)
	}
}
