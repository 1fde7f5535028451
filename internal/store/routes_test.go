package store

import (
	"testing"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/stretchr/testify/assert"
)

func testEntries() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{RouteNo: "5", RouteName: "Campus A", RouteDetails: "via highway", StartTimes: []string{"8:00 AM"}},
		{RouteNo: "2", RouteName: "Campus B", DepartureTimes: []string{"4:30 PM"}},
		{RouteNo: "5", RouteName: "Campus A", StartTimes: []string{"9:00 AM"}},
		{RouteNo: "", RouteName: "Unnumbered"},
	}
}

func TestRouteOptions(t *testing.T) {
	options := RouteOptions(testEntries())

	assert.Equal(t, []models.RouteOption{
		{RouteNo: "ALL", Label: "All Routes"},
		{RouteNo: "2", Label: "Campus B (2)"},
		{RouteNo: "5", Label: "Campus A (5)"},
	}, options)
}

func TestRouteOptionsEmpty(t *testing.T) {
	options := RouteOptions(nil)
	assert.Equal(t, []models.RouteOption{{RouteNo: "ALL", Label: "All Routes"}}, options)
}

func TestFilterEntries(t *testing.T) {
	entries := testEntries()

	tests := []struct {
		name     string
		route    string
		query    string
		expected int
	}{
		{name: "All routes", route: "ALL", expected: 4},
		{name: "All routes lowercase", route: "all", expected: 4},
		{name: "Specific route", route: "5", expected: 2},
		{name: "Route case-insensitive", route: "2", expected: 1},
		{name: "No match", route: "99", expected: 0},
		{name: "Search overrides route filter", route: "5", query: "campus b", expected: 1},
		{name: "Search matches details", route: "ALL", query: "highway", expected: 1},
		{name: "Search matches time token", route: "ALL", query: "4:30", expected: 1},
		{name: "Search no match", route: "ALL", query: "ferry", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterEntries(entries, tt.route, tt.query)
			assert.Len(t, result, tt.expected)
		})
	}
}

func TestWatcherSubscribe(t *testing.T) {
	w := NewWatcher()
	assert.False(t, w.IsLoaded())

	ch := w.Subscribe()
	w.Replace(testEntries())

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal after Replace")
	}

	assert.True(t, w.IsLoaded())
	assert.Len(t, w.Snapshot(), 4)

	// A second replace while the signal is unread must not block
	w.Replace(nil)
	w.Replace(testEntries()[:1])
	assert.Len(t, w.Snapshot(), 1)
}
