package notify

import (
	"context"
	"log"
	"strings"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/store"
)

// Settings is the preference surface the pipeline reacts to
type Settings interface {
	Get(ctx context.Context) (models.Preferences, error)
	Subscribe() <-chan struct{}
}

// Pipeline ties the reactive inputs together: whenever the schedule snapshot
// or any preference changes, it recomputes the reminder registrations. The
// computed candidate is disposable state; it is never persisted, only
// re-derived.
type Pipeline struct {
	watcher        *store.Watcher
	prefs          Settings
	scheduler      *Scheduler
	routeScheduler *RouteScheduler
}

// NewPipeline creates the reminder pipeline
func NewPipeline(w *store.Watcher, p Settings, s *Scheduler, rs *RouteScheduler) *Pipeline {
	return &Pipeline{watcher: w, prefs: p, scheduler: s, routeScheduler: rs}
}

// Run subscribes to schedule and preference changes and recomputes on every
// signal until ctx is done. Blocks; run it on its own goroutine.
func (p *Pipeline) Run(ctx context.Context) {
	scheduleCh := p.watcher.Subscribe()
	prefsCh := p.prefs.Subscribe()

	// Initial pass so a restart picks up current state immediately
	p.Recompute(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-scheduleCh:
			p.Recompute(ctx)
		case <-prefsCh:
			p.Recompute(ctx)
		}
	}
}

// Recompute performs one scheduling pass. Failures are logged and swallowed;
// the pipeline must stay alive no matter what a single pass does.
func (p *Pipeline) Recompute(ctx context.Context) {
	settings, err := p.prefs.Get(ctx)
	if err != nil {
		log.Printf("Error: failed to read preferences, skipping scheduling pass: %v", err)
		return
	}

	entries := p.watcher.Snapshot()

	if err := p.scheduler.Apply(ctx, entries, settings); err != nil {
		log.Printf("Error: failed to apply next-reminder schedule: %v", err)
	}

	p.applyRouteModel(ctx, entries, settings)
}

// applyRouteModel drives the per-route multi-alarm model: active only when
// notifications are on and a concrete route is selected.
func (p *Pipeline) applyRouteModel(ctx context.Context, entries []models.ScheduleEntry, settings models.Preferences) {
	if !settings.NotificationsEnabled || strings.EqualFold(settings.SelectedRoute, models.RouteAll) {
		if err := p.routeScheduler.CancelAll(ctx); err != nil {
			log.Printf("Error: failed to cancel route alarms: %v", err)
		}
		return
	}

	var match *models.ScheduleEntry
	for i := range entries {
		if strings.EqualFold(entries[i].RouteNo, settings.SelectedRoute) {
			match = &entries[i]
			break
		}
	}

	if match == nil {
		if err := p.routeScheduler.CancelAll(ctx); err != nil {
			log.Printf("Error: failed to cancel route alarms: %v", err)
		}
		return
	}

	if err := p.routeScheduler.ScheduleForRoute(ctx, *match, settings.NotifyLeadMinutes); err != nil {
		log.Printf("Error: failed to schedule route alarms: %v", err)
	}
}
