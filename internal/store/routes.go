package store

import (
	"sort"
	"strings"

	"github.com/diutransit/reminder_core/internal/models"
)

// RouteOptions builds the route filter choices from the current entries:
// unique route numbers with "Name (No)" labels, sorted, with the all-routes
// sentinel first.
func RouteOptions(entries []models.ScheduleEntry) []models.RouteOption {
	unique := make(map[string]string)
	var order []string
	for _, e := range entries {
		no := strings.TrimSpace(e.RouteNo)
		if no == "" {
			continue
		}
		if _, seen := unique[no]; !seen {
			unique[no] = strings.TrimSpace(e.RouteName)
			order = append(order, no)
		}
	}

	sort.Strings(order)

	options := []models.RouteOption{{RouteNo: models.RouteAll, Label: "All Routes"}}
	for _, no := range order {
		label := no
		if name := unique[no]; name != "" {
			label = name + " (" + no + ")"
		}
		options = append(options, models.RouteOption{RouteNo: no, Label: label})
	}
	return options
}

// FilterEntries narrows entries by route filter and free-text query. A
// non-empty query searches all routes, overriding the route filter.
func FilterEntries(entries []models.ScheduleEntry, route, query string) []models.ScheduleEntry {
	q := strings.ToLower(strings.TrimSpace(query))

	base := entries
	if q == "" && !strings.EqualFold(route, models.RouteAll) {
		base = nil
		for _, e := range entries {
			if strings.EqualFold(e.RouteNo, route) {
				base = append(base, e)
			}
		}
	}

	if q == "" {
		return base
	}

	var out []models.ScheduleEntry
	for _, e := range base {
		if entryMatches(e, q) {
			out = append(out, e)
		}
	}
	return out
}

func entryMatches(e models.ScheduleEntry, q string) bool {
	if strings.Contains(strings.ToLower(e.RouteNo), q) ||
		strings.Contains(strings.ToLower(e.RouteName), q) ||
		strings.Contains(strings.ToLower(e.RouteDetails), q) {
		return true
	}
	for _, t := range e.StartTimes {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	for _, t := range e.DepartureTimes {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
