package models

import "time"

// EventKind distinguishes the two time lists carried by a schedule entry
type EventKind string

const (
	KindStart     EventKind = "Start"
	KindDeparture EventKind = "Departure"
)

// RouteAll is the sentinel route filter that matches every entry
const RouteAll = "ALL"

// ScheduleEntry is one route's schedule as synced from the remote document
// store. Time lists hold raw free-text tokens ("7:20 AM — express"); parsing
// happens downstream in timeparse.
type ScheduleEntry struct {
	ID             string    `json:"id"`
	RouteNo        string    `json:"route_no"`
	RouteName      string    `json:"route_name"`
	StartTimes     []string  `json:"start_times"`
	DepartureTimes []string  `json:"departure_times"`
	RouteDetails   string    `json:"route_details"`
	CreatedAt      time.Time `json:"-"`
}

// EntryID builds the stable identifier used as the primary key
func EntryID(routeNo, routeName string) string {
	return routeNo + "_" + routeName
}

// ParsedTime is a clock time extracted from a raw schedule token, with any
// residual annotation text. Derived, never persisted.
type ParsedTime struct {
	Hour   int
	Minute int
	Note   string
}

// MinutesOfDay returns the time as minutes since midnight
func (p ParsedTime) MinutesOfDay() int {
	return p.Hour*60 + p.Minute
}

// NotificationCandidate is the best upcoming reminder computed by the
// selector. FireAt is the lead-adjusted instant; EventAt is the underlying
// schedule time the user cares about.
type NotificationCandidate struct {
	FireAt  time.Time `json:"fire_at"`
	EventAt time.Time `json:"event_at"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
}

// AlarmPayload travels with an alarm registration and is all the receiver
// has when the alarm fires. It must be self-contained.
type AlarmPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	RouteNo string `json:"route_no,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// RouteOption is a dropdown entry for the route filter
type RouteOption struct {
	RouteNo string `json:"route_no"`
	Label   string `json:"label"`
}

// SyncResult reports the outcome of a fetch-if-newer pass
type SyncResult struct {
	Updated    bool   `json:"updated"`
	Version    int    `json:"version"`
	Message    string `json:"message"`
	EntryCount int    `json:"entry_count"`
}

// Preferences is the full user settings snapshot
type Preferences struct {
	NotificationsEnabled bool   `json:"notifications_enabled"`
	NotifyLeadMinutes    int    `json:"notify_lead_minutes"`
	SelectedRoute        string `json:"selected_route"`
	DarkMode             bool   `json:"dark_mode"`
	ShowUpdateBanner     bool   `json:"show_update_banner"`
	CompactMode          bool   `json:"compact_mode"`
}
