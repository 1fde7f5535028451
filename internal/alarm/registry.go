package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diutransit/reminder_core/internal/cache"
	"github.com/diutransit/reminder_core/internal/models"
	"github.com/redis/go-redis/v9"
)

// Receiver is invoked when a registration fires. It gets only the payload
// that travelled with the registration; it must not depend on scheduler
// state, because the registration may outlive the scheduling pass (and, via
// Restore, the process) that created it.
type Receiver interface {
	ReceiveAlarm(id string, payload models.AlarmPayload)
}

// Registration is one pending one-shot alarm
type Registration struct {
	ID      string              `json:"id"`
	FireAt  time.Time           `json:"fire_at"`
	Payload models.AlarmPayload `json:"payload"`
}

// mirror is the durable copy of pending registrations. All mirror calls
// happen while the registry mutex is held, so the persisted state never
// trails the in-memory state across an interleaved schedule/cancel pair.
type mirror interface {
	save(ctx context.Context, reg Registration) error
	remove(ctx context.Context, id string) error
	loadAll(ctx context.Context) (map[string]string, error)
}

// redisMirror stores registrations as JSON fields of one hash
type redisMirror struct {
	rdb *redis.Client
}

func (m *redisMirror) save(ctx context.Context, reg Registration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return m.rdb.HSet(ctx, cache.AlarmsKey(), reg.ID, data).Err()
}

func (m *redisMirror) remove(ctx context.Context, id string) error {
	return m.rdb.HDel(ctx, cache.AlarmsKey(), id).Err()
}

func (m *redisMirror) loadAll(ctx context.Context) (map[string]string, error) {
	return m.rdb.HGetAll(ctx, cache.AlarmsKey()).Result()
}

// Registry holds one-shot wake registrations keyed by identifier.
// Registering an identifier that is already pending atomically replaces the
// previous registration; a given identifier never fires twice for one
// registration. Registrations are mirrored to Redis so they survive process
// restart and can be re-armed with Restore.
type Registry struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	pending  map[string]Registration
	gens     map[string]uint64
	receiver Receiver
	mirror   mirror
	now      func() time.Time
	closed   bool
}

// NewRegistry creates a registry. rdb may be nil, in which case registrations
// are held in memory only.
func NewRegistry(receiver Receiver, rdb *redis.Client) *Registry {
	r := &Registry{
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]Registration),
		gens:     make(map[string]uint64),
		receiver: receiver,
		now:      time.Now,
	}
	if rdb != nil {
		r.mirror = &redisMirror{rdb: rdb}
	}
	return r
}

// SetClock overrides the clock source (useful for testing)
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// ScheduleOnce registers a one-shot alarm at fireAt, replacing any pending
// registration under the same identifier. The replacement is atomic: once
// ScheduleOnce returns, the previous registration can no longer deliver,
// even if its timer had already expired and was racing for the lock.
func (r *Registry) ScheduleOnce(ctx context.Context, id string, fireAt time.Time, payload models.AlarmPayload) error {
	reg := Registration{ID: id, FireAt: fireAt, Payload: payload}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("alarm registry is closed")
	}

	if t, ok := r.timers[id]; ok {
		// Stop may return false when the old timer already expired; the
		// generation bump below invalidates its callback either way.
		t.Stop()
	}
	r.gens[id]++
	gen := r.gens[id]
	r.pending[id] = reg

	delay := fireAt.Sub(r.now())
	if delay < 0 {
		delay = 0
	}
	r.timers[id] = time.AfterFunc(delay, func() { r.fire(id, gen) })

	if err := r.save(ctx, reg); err != nil {
		log.Printf("Warning: failed to persist alarm %s: %v", id, err)
	}
	return nil
}

// Cancel removes a pending registration. Cancelling an unknown identifier is
// a no-op.
func (r *Registry) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	delete(r.pending, id)
	// gens[id] stays: an expired timer callback for this identifier may
	// still be in flight, and a later re-registration must not hand it a
	// reusable generation.
	return r.unsave(ctx, id)
}

// CancelPrefix removes every pending registration whose identifier starts
// with prefix
func (r *Registry) CancelPrefix(ctx context.Context, prefix string) error {
	r.mu.Lock()
	var ids []string
	for id := range r.pending {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		if err := r.Cancel(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Pending lists the current registrations ordered by fire instant
func (r *Registry) Pending() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Registration, 0, len(r.pending))
	for _, reg := range r.pending {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Restore re-arms registrations persisted by a previous process. A fire
// instant already in the past fires immediately, once.
func (r *Registry) Restore(ctx context.Context) error {
	if r.mirror == nil {
		return nil
	}

	fields, err := r.mirror.loadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted alarms: %w", err)
	}

	restored := 0
	for id, data := range fields {
		var reg Registration
		if err := json.Unmarshal([]byte(data), &reg); err != nil {
			log.Printf("Warning: dropping unreadable alarm %s: %v", id, err)
			r.mirror.remove(ctx, id)
			continue
		}
		if err := r.ScheduleOnce(ctx, reg.ID, reg.FireAt, reg.Payload); err != nil {
			return err
		}
		restored++
	}

	if restored > 0 {
		log.Printf("Restored %d alarm registrations", restored)
	}
	return nil
}

// Close stops all pending timers without firing them
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

// fire delivers a registration to the receiver. Delivery happens only when
// the registration's generation is still current: a callback whose timer
// expired just before a replacement or cancel took the lock finds a newer
// generation (or nothing pending) and backs off, leaving the replacement to
// its own timer.
func (r *Registry) fire(id string, gen uint64) {
	r.mu.Lock()
	reg, ok := r.pending[id]
	if !ok || r.gens[id] != gen {
		r.mu.Unlock()
		return
	}
	delete(r.pending, id)
	delete(r.timers, id)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := r.unsave(ctx, id); err != nil {
		log.Printf("Warning: failed to clear persisted alarm %s: %v", id, err)
	}
	cancel()
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Error: alarm receiver panicked for %s: %v", id, rec)
		}
	}()
	r.receiver.ReceiveAlarm(id, reg.Payload)
}

// save and unsave require r.mu to be held.
func (r *Registry) save(ctx context.Context, reg Registration) error {
	if r.mirror == nil {
		return nil
	}
	return r.mirror.save(ctx, reg)
}

func (r *Registry) unsave(ctx context.Context, id string) error {
	if r.mirror == nil {
		return nil
	}
	return r.mirror.remove(ctx, id)
}
