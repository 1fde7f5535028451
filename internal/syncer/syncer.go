package syncer

import (
	"context"
	"fmt"
	"log"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/store"
	"github.com/google/uuid"
)

// Replacer is the persistence side of a sync pass
type Replacer interface {
	ReplaceAll(ctx context.Context, entries []models.ScheduleEntry) error
}

// Syncer performs fetch-if-newer against the remote document store and
// replaces the local schedule set when the remote version is ahead.
type Syncer struct {
	remote   RemoteSource
	replacer Replacer
	versions Versions
	watcher  *store.Watcher
}

// New creates a syncer
func New(remote RemoteSource, replacer Replacer, versions Versions, watcher *store.Watcher) *Syncer {
	return &Syncer{
		remote:   remote,
		replacer: replacer,
		versions: versions,
		watcher:  watcher,
	}
}

// SyncIfNeeded compares the remote version against the local one and, when
// the remote is newer, replaces the local entry set wholesale and publishes
// the new snapshot to the watcher.
func (s *Syncer) SyncIfNeeded(ctx context.Context) (models.SyncResult, error) {
	runID := uuid.NewString()

	meta, err := s.remote.FetchMeta(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("sync %s: %w", runID, err)
	}

	local, err := s.versions.LocalVersion(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("sync %s: %w", runID, err)
	}

	if meta.Version <= local {
		return models.SyncResult{Updated: false, Version: meta.Version, Message: meta.Message}, nil
	}

	entries, err := s.remote.FetchItems(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("sync %s: %w", runID, err)
	}

	if err := s.replacer.ReplaceAll(ctx, entries); err != nil {
		return models.SyncResult{}, fmt.Errorf("sync %s: %w", runID, err)
	}

	if err := s.versions.SetLocalVersion(ctx, meta.Version); err != nil {
		return models.SyncResult{}, fmt.Errorf("sync %s: %w", runID, err)
	}

	s.watcher.Replace(entries)

	log.Printf("Sync %s applied version %d (%d entries)", runID, meta.Version, len(entries))
	return models.SyncResult{Updated: true, Version: meta.Version, Message: meta.Message, EntryCount: len(entries)}, nil
}

// ShouldShowUpdate reports whether the update banner should be shown for the
// given version
func (s *Syncer) ShouldShowUpdate(ctx context.Context, version int) (bool, error) {
	seen, err := s.versions.SeenVersion(ctx)
	if err != nil {
		return false, err
	}
	return version > seen, nil
}

// MarkSeen records that the update banner for version has been shown
func (s *Syncer) MarkSeen(ctx context.Context, version int) error {
	return s.versions.MarkSeen(ctx, version)
}
