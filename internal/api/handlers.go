package api

import (
	"log"
	"sync"
	"time"

	"github.com/diutransit/reminder_core/internal/alarm"
	"github.com/diutransit/reminder_core/internal/cache"
	"github.com/diutransit/reminder_core/internal/db"
	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/notify"
	"github.com/diutransit/reminder_core/internal/prefs"
	"github.com/diutransit/reminder_core/internal/store"
	"github.com/diutransit/reminder_core/internal/syncer"
	"github.com/gofiber/fiber/v2"
)

// Handlers carries the API's collaborators. Everything is injected; the
// handlers own no state beyond the in-flight sync guard.
type Handlers struct {
	Watcher *store.Watcher
	Prefs   *prefs.Store
	Sync    *syncer.Syncer
	Alarms  *alarm.Registry
	Now     func() time.Time

	syncMu sync.Mutex
}

// NewHandlers creates the handler set
func NewHandlers(w *store.Watcher, p *prefs.Store, s *syncer.Syncer, a *alarm.Registry) *Handlers {
	return &Handlers{Watcher: w, Prefs: p, Sync: s, Alarms: a, Now: time.Now}
}

// Register mounts all routes on the app
func (h *Handlers) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/v2/schedule", h.Schedule)
	app.Get("/v2/routes/options", h.RouteOptions)
	app.Get("/v2/reminders/next", h.NextReminder)
	app.Get("/v2/prefs", h.GetPrefs)
	app.Put("/v2/prefs", h.UpdatePrefs)
	app.Post("/v2/sync", h.TriggerSync)
	app.Get("/v2/alarms", h.PendingAlarms)
}

// Health handles GET /health
func (h *Handlers) Health(c *fiber.Ctx) error {
	ctx := c.Context()

	status := fiber.Map{
		"status":          "ok",
		"schedule_loaded": h.Watcher.IsLoaded(),
	}

	if err := db.HealthCheck(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
	}
	if err := cache.HealthCheck(ctx); err != nil {
		status["status"] = "degraded"
		status["redis"] = err.Error()
	}

	code := 200
	if status["status"] != "ok" {
		code = 503
	}
	return c.Status(code).JSON(status)
}

// Schedule handles GET /v2/schedule?route=&q=
// A non-empty q searches across all routes, overriding the route filter.
// When route is omitted, the user's stored route filter applies.
func (h *Handlers) Schedule(c *fiber.Ctx) error {
	route := c.Query("route")
	query := c.Query("q")

	if route == "" {
		p, err := h.Prefs.Get(c.Context())
		if err != nil {
			log.Printf("Error: failed to read preferences: %v", err)
			route = models.RouteAll
		} else {
			route = p.SelectedRoute
		}
	}

	entries := store.FilterEntries(h.Watcher.Snapshot(), route, query)
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}

// RouteOptions handles GET /v2/routes/options
func (h *Handlers) RouteOptions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"options": store.RouteOptions(h.Watcher.Snapshot()),
	})
}

// NextReminder handles GET /v2/reminders/next — a preview of what the
// scheduler would register right now
func (h *Handlers) NextReminder(c *fiber.Ctx) error {
	p, err := h.Prefs.Get(c.Context())
	if err != nil {
		return fiber.NewError(500, "failed to read preferences")
	}

	candidate, ok := notify.SelectNext(h.Watcher.Snapshot(), p.SelectedRoute, p.NotifyLeadMinutes, h.Now())
	if !ok {
		return c.JSON(fiber.Map{"candidate": nil})
	}
	return c.JSON(fiber.Map{"candidate": candidate})
}

// PendingAlarms handles GET /v2/alarms — pending registrations for diagnostics
func (h *Handlers) PendingAlarms(c *fiber.Ctx) error {
	pending := h.Alarms.Pending()
	return c.JSON(fiber.Map{
		"alarms": pending,
		"total":  len(pending),
	})
}

// TriggerSync handles POST /v2/sync
func (h *Handlers) TriggerSync(c *fiber.Ctx) error {
	if !h.syncMu.TryLock() {
		return c.Status(409).JSON(fiber.Map{"error": "sync already in progress"})
	}
	defer h.syncMu.Unlock()

	ctx := c.Context()

	res, err := h.Sync.SyncIfNeeded(ctx)
	if err != nil {
		log.Printf("Error: sync failed: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "sync failed"})
	}

	showUpdate := false
	p, perr := h.Prefs.Get(ctx)
	if perr == nil && p.ShowUpdateBanner && res.Updated {
		show, serr := h.Sync.ShouldShowUpdate(ctx, res.Version)
		if serr == nil && show {
			showUpdate = true
			if merr := h.Sync.MarkSeen(ctx, res.Version); merr != nil {
				log.Printf("Warning: failed to mark version seen: %v", merr)
			}
		}
	}

	return c.JSON(fiber.Map{
		"updated":     res.Updated,
		"version":     res.Version,
		"message":     res.Message,
		"show_update": showUpdate,
	})
}
