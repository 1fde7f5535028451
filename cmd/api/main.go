package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/diutransit/reminder_core/internal/alarm"
	"github.com/diutransit/reminder_core/internal/api"
	"github.com/diutransit/reminder_core/internal/cache"
	"github.com/diutransit/reminder_core/internal/config"
	"github.com/diutransit/reminder_core/internal/db"
	"github.com/diutransit/reminder_core/internal/middleware"
	"github.com/diutransit/reminder_core/internal/notifier"
	"github.com/diutransit/reminder_core/internal/notify"
	"github.com/diutransit/reminder_core/internal/prefs"
	"github.com/diutransit/reminder_core/internal/store"
	"github.com/diutransit/reminder_core/internal/syncer"
)

func main() {
	log.Println("Starting DIU Transit reminder service...")

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	// Initialize database connection
	pool, err := db.GetDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✓ Database connection established")

	// Initialize Redis connection
	rdb, err := cache.GetClient()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()
	log.Println("✓ Redis connection established")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schedule storage + in-memory snapshot
	scheduleStore := store.NewScheduleStore(pool)
	if err := scheduleStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	watcher := store.NewWatcher()
	if err := watcher.Load(ctx, scheduleStore); err != nil {
		log.Fatalf("Failed to load schedule: %v", err)
	}
	log.Printf("✓ Schedule loaded into memory (%d entries)", len(watcher.Snapshot()))

	// Preferences
	prefStore := prefs.NewStore(rdb)
	if err := prefStore.EnsureDefaults(ctx); err != nil {
		log.Fatalf("Failed to seed preference defaults: %v", err)
	}
	log.Println("✓ Preferences ready")

	// Notification delivery
	var notif notifier.Notifier
	if cfg.Notifier.WebhookURL != "" {
		notif = notifier.NewWebhook(cfg.Notifier.WebhookURL, time.Duration(cfg.Notifier.TimeoutMS)*time.Millisecond)
		log.Printf("✓ Webhook notifier configured (%s)", cfg.Notifier.WebhookURL)
	} else {
		notif = notifier.LogNotifier{}
		log.Println("✓ Log notifier configured (no webhook URL)")
	}

	// Reminder pipeline. The emitter's reschedule hook is bound after the
	// pipeline exists, so fired alarms chain into a fresh selection pass.
	perms := notify.StaticPermissions{
		PostNotifications: cfg.Permissions.PostNotifications,
		ExactAlarms:       cfg.Permissions.ExactAlarms,
	}
	emitter := notify.NewEmitter(notif, nil)
	registry := alarm.NewRegistry(emitter, rdb)
	defer registry.Close()

	scheduler := notify.NewScheduler(registry, perms, notif, time.Now)
	routeScheduler := notify.NewRouteScheduler(registry, notif, time.Now)
	pipeline := notify.NewPipeline(watcher, prefStore, scheduler, routeScheduler)
	emitter.SetReschedule(func() { pipeline.Recompute(context.Background()) })

	if err := registry.Restore(ctx); err != nil {
		log.Printf("Warning: failed to restore persisted alarms: %v", err)
	} else {
		log.Printf("✓ Alarm registry restored (%d pending)", len(registry.Pending()))
	}

	go pipeline.Run(ctx)
	log.Println("✓ Reminder pipeline running")

	// Remote sync
	remote := syncer.NewClient(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutMS)*time.Millisecond)
	sync := syncer.New(remote, scheduleStore, syncer.NewRedisVersions(rdb), watcher)
	go runPeriodicSync(ctx, sync, time.Duration(cfg.Remote.SyncIntervalMS)*time.Millisecond)
	log.Println("✓ Periodic sync started")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "DIU Transit Reminder API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if cfg.RateLimit.PerMinute > 0 {
		app.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimit.PerMinute))
	}

	// Routes
	handlers := api.NewHandlers(watcher, prefStore, sync, registry)
	handlers.Register(app)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("🔔 Next reminder: http://localhost%s/v2/reminders/next", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// runPeriodicSync pulls the remote schedule on a fixed interval. A zero
// interval disables the loop; POST /v2/sync still works.
func runPeriodicSync(ctx context.Context, s *syncer.Syncer, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.SyncIfNeeded(ctx)
			if err != nil {
				log.Printf("Error: periodic sync failed: %v", err)
				continue
			}
			if res.Updated {
				log.Printf("Schedule synced to version %d (%d entries)", res.Version, res.EntryCount)
			}
		}
	}
}

// customErrorHandler handles errors returned from handlers
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
