package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduledAlarm struct {
	FireAt  time.Time
	Payload models.AlarmPayload
}

// fakeAlarms records registry calls for assertions
type fakeAlarms struct {
	mu        sync.Mutex
	scheduled map[string]scheduledAlarm
	cancels   []string
}

func newFakeAlarms() *fakeAlarms {
	return &fakeAlarms{scheduled: make(map[string]scheduledAlarm)}
}

func (f *fakeAlarms) ScheduleOnce(ctx context.Context, id string, fireAt time.Time, payload models.AlarmPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[id] = scheduledAlarm{FireAt: fireAt, Payload: payload}
	return nil
}

func (f *fakeAlarms) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, id)
	delete(f.scheduled, id)
	return nil
}

func (f *fakeAlarms) CancelPrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.scheduled {
		if strings.HasPrefix(id, prefix) {
			f.cancels = append(f.cancels, id)
			delete(f.scheduled, id)
		}
	}
	return nil
}

// fakeNotifier records channel and post calls
type fakeNotifier struct {
	mu       sync.Mutex
	channels []string
	posts    []string
	failPost bool
}

func (f *fakeNotifier) EnsureChannel(ctx context.Context, id, name, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, id)
	return nil
}

func (f *fakeNotifier) Post(ctx context.Context, channelID, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPost {
		return assert.AnError
	}
	f.posts = append(f.posts, title+"|"+body)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
}

func allGranted() StaticPermissions {
	return StaticPermissions{PostNotifications: true, ExactAlarms: true}
}

func enabledPrefs() models.Preferences {
	return models.Preferences{
		NotificationsEnabled: true,
		NotifyLeadMinutes:    15,
		SelectedRoute:        models.RouteAll,
	}
}

func campusEntries() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{RouteNo: "5", RouteName: "Campus A", StartTimes: []string{"8:00 AM"}},
	}
}

func TestSchedulerRegistersCandidate(t *testing.T) {
	alarms := newFakeAlarms()
	s := NewScheduler(alarms, allGranted(), &fakeNotifier{}, fixedNow)

	require.NoError(t, s.Apply(context.Background(), campusEntries(), enabledPrefs()))

	reg, ok := alarms.scheduled[NextReminderSlot]
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 7, 45, 0, 0, time.UTC), reg.FireAt)
	assert.Contains(t, reg.Payload.Title, "5")
	assert.Contains(t, reg.Payload.Body, "Campus A")
}

func TestSchedulerDisabledCancels(t *testing.T) {
	alarms := newFakeAlarms()
	s := NewScheduler(alarms, allGranted(), &fakeNotifier{}, fixedNow)
	ctx := context.Background()

	// Register first, then disable: the slot must be canceled.
	require.NoError(t, s.Apply(ctx, campusEntries(), enabledPrefs()))
	require.Contains(t, alarms.scheduled, NextReminderSlot)

	p := enabledPrefs()
	p.NotificationsEnabled = false
	require.NoError(t, s.Apply(ctx, campusEntries(), p))

	assert.Equal(t, []string{NextReminderSlot}, alarms.cancels)
	assert.NotContains(t, alarms.scheduled, NextReminderSlot)
}

func TestSchedulerNoCandidateLeavesRegistration(t *testing.T) {
	alarms := newFakeAlarms()
	s := NewScheduler(alarms, allGranted(), &fakeNotifier{}, fixedNow)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, campusEntries(), enabledPrefs()))
	before := alarms.scheduled[NextReminderSlot]

	// Empty snapshot mid-resync: no new registration, no cancel.
	require.NoError(t, s.Apply(ctx, nil, enabledPrefs()))

	assert.Empty(t, alarms.cancels)
	assert.Equal(t, before, alarms.scheduled[NextReminderSlot])
}

func TestSchedulerPermissionGating(t *testing.T) {
	tests := []struct {
		name  string
		perms StaticPermissions
	}{
		{name: "Notification permission withheld", perms: StaticPermissions{PostNotifications: false, ExactAlarms: true}},
		{name: "Exact alarm permission withheld", perms: StaticPermissions{PostNotifications: true, ExactAlarms: false}},
		{name: "Both withheld", perms: StaticPermissions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alarms := newFakeAlarms()
			s := NewScheduler(alarms, tt.perms, &fakeNotifier{}, fixedNow)

			// No error surfaces and nothing is registered
			require.NoError(t, s.Apply(context.Background(), campusEntries(), enabledPrefs()))
			assert.Empty(t, alarms.scheduled)
		})
	}
}

func TestSchedulerReplacesPriorRegistration(t *testing.T) {
	alarms := newFakeAlarms()
	s := NewScheduler(alarms, allGranted(), &fakeNotifier{}, fixedNow)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, campusEntries(), enabledPrefs()))

	// A changed lead time produces a new fire instant under the same slot
	p := enabledPrefs()
	p.NotifyLeadMinutes = 30
	require.NoError(t, s.Apply(ctx, campusEntries(), p))

	assert.Len(t, alarms.scheduled, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 7, 30, 0, 0, time.UTC), alarms.scheduled[NextReminderSlot].FireAt)
}

func TestEmitterPostsAndReschedules(t *testing.T) {
	n := &fakeNotifier{}
	rescheduled := 0
	e := NewEmitter(n, func() { rescheduled++ })

	e.ReceiveAlarm(NextReminderSlot, models.AlarmPayload{Title: "DIU Bus Reminder • 5", Body: "Campus A at 8:00 AM (lead 15m)"})

	require.Len(t, n.posts, 1)
	assert.Contains(t, n.posts[0], "Campus A")
	assert.Equal(t, []string{ChannelID}, n.channels)
	assert.Equal(t, 1, rescheduled)
}

func TestEmitterRouteChannel(t *testing.T) {
	n := &fakeNotifier{}
	e := NewEmitter(n, nil)

	e.ReceiveAlarm("route:5:Start:480", models.AlarmPayload{Title: "Route 5", Body: "Start at 8:00 AM", RouteNo: "5", Kind: "Start"})

	assert.Equal(t, []string{RouteChannelID}, n.channels)
	require.Len(t, n.posts, 1)
}

func TestEmitterEmptyPayloadDropped(t *testing.T) {
	n := &fakeNotifier{}
	rescheduled := 0
	e := NewEmitter(n, func() { rescheduled++ })

	e.ReceiveAlarm(NextReminderSlot, models.AlarmPayload{})

	assert.Empty(t, n.posts)
	assert.Zero(t, rescheduled)
}

func TestEmitterPostFailureDoesNotPanic(t *testing.T) {
	n := &fakeNotifier{failPost: true}
	e := NewEmitter(n, nil)

	assert.NotPanics(t, func() {
		e.ReceiveAlarm(NextReminderSlot, models.AlarmPayload{Title: "t", Body: "b"})
	})
}
