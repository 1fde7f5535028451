package notify

import (
	"context"
	"log"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/notifier"
)

// Notification channel metadata
const (
	ChannelID   = "diu_schedule"
	ChannelName = "DIU Transport Alerts"
	ChannelDesc = "Bus schedule and reminder notifications"

	RouteChannelID   = "route_notifications"
	RouteChannelName = "Route Notifications"
	RouteChannelDesc = "Alerts before selected route times"
)

// NextReminderSlot is the fixed registration identifier for the single
// "next event" reminder. Each scheduling pass overwrites this one slot.
const NextReminderSlot = "next-reminder"

// AlarmFacility is the platform alarm surface the scheduler writes to
type AlarmFacility interface {
	ScheduleOnce(ctx context.Context, id string, fireAt time.Time, payload models.AlarmPayload) error
	Cancel(ctx context.Context, id string) error
	CancelPrefix(ctx context.Context, prefix string) error
}

// Scheduler programs the single next-reminder alarm from the current
// schedule snapshot and preferences. All collaborators are injected; the
// scheduler holds no hidden platform state.
type Scheduler struct {
	alarms   AlarmFacility
	perms    PermissionChecker
	notifier notifier.Notifier
	now      func() time.Time
}

// NewScheduler creates a scheduler with injected collaborators. now may be
// nil, in which case time.Now is used.
func NewScheduler(alarms AlarmFacility, perms PermissionChecker, n notifier.Notifier, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{alarms: alarms, perms: perms, notifier: n, now: now}
}

// Apply recomputes the next-reminder slot from the given snapshot and
// preferences. Disabled cancels the slot; no candidate leaves the existing
// registration untouched so a momentarily-empty snapshot during resync does
// not flap the alarm; missing permissions skip with a log line.
func (s *Scheduler) Apply(ctx context.Context, entries []models.ScheduleEntry, p models.Preferences) error {
	if !p.NotificationsEnabled {
		if err := s.alarms.Cancel(ctx, NextReminderSlot); err != nil {
			return err
		}
		log.Printf("Canceled next alarm")
		return nil
	}

	candidate, ok := SelectNext(entries, p.SelectedRoute, p.NotifyLeadMinutes, s.now())
	if !ok {
		log.Printf("No upcoming time found")
		return nil
	}

	if !s.perms.CanPostNotifications() {
		log.Printf("Notification permission not granted, skipping schedule")
		return nil
	}
	if !s.perms.CanScheduleExactAlarms() {
		log.Printf("Exact alarm not allowed, skipping schedule")
		return nil
	}

	if err := s.notifier.EnsureChannel(ctx, ChannelID, ChannelName, ChannelDesc); err != nil {
		log.Printf("Warning: failed to ensure notification channel: %v", err)
	}

	payload := models.AlarmPayload{Title: candidate.Title, Body: candidate.Body}
	if err := s.alarms.ScheduleOnce(ctx, NextReminderSlot, candidate.FireAt, payload); err != nil {
		return err
	}

	log.Printf("Scheduled next alarm at=%s", candidate.FireAt.Format(time.RFC3339))
	return nil
}
