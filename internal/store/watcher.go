package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
)

// Watcher holds the current schedule snapshot in memory and notifies
// subscribers whenever the set is replaced. Consumers react to changes
// instead of polling the database.
type Watcher struct {
	mu      sync.RWMutex
	entries []models.ScheduleEntry
	subs    []chan struct{}
	loaded  bool
}

// NewWatcher creates an empty watcher
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Load populates the snapshot from the persistent store
func (w *Watcher) Load(ctx context.Context, store *ScheduleStore) error {
	start := time.Now()

	entries, err := store.ListAll(ctx)
	if err != nil {
		return err
	}

	w.Replace(entries)
	log.Printf("Schedule snapshot loaded in %v (%d entries)", time.Since(start), len(entries))
	return nil
}

// Replace swaps in a new snapshot and notifies all subscribers
func (w *Watcher) Replace(entries []models.ScheduleEntry) {
	w.mu.Lock()
	w.entries = entries
	w.loaded = true
	subs := make([]chan struct{}, len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber is mid-recompute; it will see the new snapshot anyway.
		}
	}
}

// Snapshot returns the current entry set. The returned slice must not be
// mutated by callers.
func (w *Watcher) Snapshot() []models.ScheduleEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.entries
}

// IsLoaded returns true once an initial snapshot has been set
func (w *Watcher) IsLoaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// Subscribe returns a channel that receives a signal on every replace.
// The channel has a buffer of one; coalesced signals are fine because
// subscribers always read the latest snapshot.
func (w *Watcher) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}
