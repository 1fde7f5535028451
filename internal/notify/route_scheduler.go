package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/notifier"
	"github.com/diutransit/reminder_core/internal/timeparse"
)

// routeSlotPrefix namespaces per-route registrations so they can be cleared
// as a group without touching the next-reminder slot
const routeSlotPrefix = "route:"

// minFireGuard keeps per-route registrations from firing effectively "now"
const minFireGuard = 10 * time.Second

// RouteScheduler programs one alarm per upcoming time of a single route.
// Registration identifiers derive from (route, kind, minutes-of-day), so
// distinct times for one route coexist while a resync of the same schedule
// collapses onto the same registrations instead of duplicating them.
type RouteScheduler struct {
	alarms   AlarmFacility
	notifier notifier.Notifier
	now      func() time.Time
}

// NewRouteScheduler creates a per-route scheduler. now may be nil.
func NewRouteScheduler(alarms AlarmFacility, n notifier.Notifier, now func() time.Time) *RouteScheduler {
	if now == nil {
		now = time.Now
	}
	return &RouteScheduler{alarms: alarms, notifier: n, now: now}
}

// slotID builds the deterministic registration identifier for one route time
func slotID(routeNo string, kind models.EventKind, t models.ParsedTime) string {
	return fmt.Sprintf("%s%s:%s:%d", routeSlotPrefix, routeNo, kind, t.MinutesOfDay())
}

// ScheduleForRoute registers a reminder for every parseable time of the
// entry, start times and departure times alike. Times whose lead-adjusted
// fire instant is already past (or within the guard window) are skipped.
func (s *RouteScheduler) ScheduleForRoute(ctx context.Context, entry models.ScheduleEntry, leadMinutes int) error {
	if err := s.notifier.EnsureChannel(ctx, RouteChannelID, RouteChannelName, RouteChannelDesc); err != nil {
		log.Printf("Warning: failed to ensure route channel: %v", err)
	}

	now := s.now()
	lead := time.Duration(leadMinutes) * time.Minute
	scheduled := 0

	kinds := []struct {
		kind models.EventKind
		raws []string
	}{
		{models.KindStart, entry.StartTimes},
		{models.KindDeparture, entry.DepartureTimes},
	}

	for _, group := range kinds {
		for _, raw := range group.raws {
			t, ok := timeparse.SplitTimeNote(raw)
			if !ok {
				continue
			}

			eventAt := timeparse.NextOccurrence(now, t)
			// An occurrence less than a minute away is as good as missed;
			// roll it to tomorrow.
			if eventAt.Before(now.Add(time.Minute)) {
				eventAt = eventAt.AddDate(0, 0, 1)
			}

			fireAt := eventAt.Add(-lead)
			if fireAt.Before(now.Add(minFireGuard)) {
				continue
			}

			body := fmt.Sprintf("%s at %s", group.kind, timeparse.FormatClock(t))
			if t.Note != "" {
				body += " — " + t.Note
			}

			payload := models.AlarmPayload{
				Title:   fmt.Sprintf("Route %s", entry.RouteNo),
				Body:    body,
				RouteNo: entry.RouteNo,
				Kind:    string(group.kind),
			}

			if err := s.alarms.ScheduleOnce(ctx, slotID(entry.RouteNo, group.kind, t), fireAt, payload); err != nil {
				return err
			}
			scheduled++
		}
	}

	log.Printf("Scheduled %d route alarms for route %s", scheduled, entry.RouteNo)
	return nil
}

// CancelAll clears every per-route registration
func (s *RouteScheduler) CancelAll(ctx context.Context) error {
	return s.alarms.CancelPrefix(ctx, routeSlotPrefix)
}
