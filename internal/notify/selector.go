package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/timeparse"
)

// SelectNext scans the schedule for the single most relevant upcoming
// reminder: filter entries to the selected route, extract every clock time,
// resolve each to its next occurrence, subtract the lead time, and keep the
// earliest fire instant still strictly in the future. Ties go to the first
// time encountered.
func SelectNext(entries []models.ScheduleEntry, routeFilter string, leadMinutes int, now time.Time) (models.NotificationCandidate, bool) {
	filtered := filterByRoute(entries, routeFilter)
	if len(filtered) == 0 {
		return models.NotificationCandidate{}, false
	}

	lead := time.Duration(leadMinutes) * time.Minute

	var best models.NotificationCandidate
	found := false

	for _, entry := range filtered {
		routeName := strings.TrimSpace(entry.RouteName)
		if routeName == "" {
			routeName = "DIU Route"
		}
		// A blank route number never surfaces the filter string in the
		// title; the display name stands in for it.
		routeNo := strings.TrimSpace(entry.RouteNo)
		if routeNo == "" {
			routeNo = routeName
		}

		raws := make([]string, 0, len(entry.StartTimes)+len(entry.DepartureTimes))
		raws = append(raws, entry.StartTimes...)
		raws = append(raws, entry.DepartureTimes...)

		for _, raw := range raws {
			for _, t := range timeparse.ExtractClockTimes(raw) {
				eventAt := timeparse.NextOccurrence(now, t)
				fireAt := eventAt.Add(-lead)
				if !fireAt.After(now) {
					continue
				}
				if !found || fireAt.Before(best.FireAt) {
					best = models.NotificationCandidate{
						FireAt:  fireAt,
						EventAt: eventAt,
						Title:   fmt.Sprintf("DIU Bus Reminder • %s", routeNo),
						Body:    fmt.Sprintf("%s at %s (lead %dm)", routeName, timeparse.FormatClock(t), leadMinutes),
					}
					found = true
				}
			}
		}
	}

	return best, found
}

// filterByRoute keeps entries whose route number or display name matches the
// filter, case-insensitively. The all-routes sentinel keeps everything.
func filterByRoute(entries []models.ScheduleEntry, routeFilter string) []models.ScheduleEntry {
	sel := strings.TrimSpace(routeFilter)
	if sel == "" || strings.EqualFold(sel, models.RouteAll) {
		return entries
	}

	var out []models.ScheduleEntry
	for _, e := range entries {
		if strings.EqualFold(e.RouteNo, sel) || strings.EqualFold(e.RouteName, sel) {
			out = append(out, e)
		}
	}
	return out
}
