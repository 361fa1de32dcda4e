package core

// resharding_flat_storage.go – component C6: migrates the flat-storage key
// space (the node's O(1)-lookup cache over DBCol::State) from parent-owned
// to child-owned physical prefixes, in the background, after the in-memory
// split has already committed (spec.md §4.6).

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReshardingHandle is the shared cancellation flag observed by a
// FlatStorageResharder's background worker at every loop boundary (spec.md
// §5). Safe for concurrent use; SetCancelled is idempotent.
type ReshardingHandle struct {
	cancelled atomic.Bool
}

// NewReshardingHandle returns a live (not cancelled) handle.
func NewReshardingHandle() *ReshardingHandle { return &ReshardingHandle{} }

// SetCancelled requests cooperative cancellation. The worker finishes its
// current batch and persists a checkpoint before stopping; it does not stop
// mid-batch.
func (h *ReshardingHandle) SetCancelled() { h.cancelled.Store(true) }

// IsCancelled reports the current cancellation state.
func (h *ReshardingHandle) IsCancelled() bool { return h.cancelled.Load() }

// FlatStorageResharderConfig is the mutable knob the original source threads
// through the manager as a live-reloadable config value, carried here as a
// plain struct since this subsystem does not expose a running config-reload
// channel (see SPEC_FULL.md §6).
type FlatStorageResharderConfig struct {
	// BatchSize bounds how many keys are migrated per iteration of the
	// background worker's loop, the granularity at which cancellation and
	// checkpointing happen.
	BatchSize int
}

// DefaultFlatStorageResharderConfig matches nearcore's default batch size
// order of magnitude for flat-storage migration passes.
func DefaultFlatStorageResharderConfig() FlatStorageResharderConfig {
	return FlatStorageResharderConfig{BatchSize: 1000}
}

// FlatKeyMigrator performs the actual per-key flat-storage move. The host
// node supplies the real implementation; tests supply an in-memory fake.
type FlatKeyMigrator interface {
	// MigrateBatch moves up to config.BatchSize keys belonging to child out
	// of parent's flat-storage range, returning done=true once nothing is
	// left to migrate for child.
	MigrateBatch(ctx context.Context, parent, child ShardUID, batchSize int) (done bool, err error)
}

// FlatStorageResharder implements C6.
type FlatStorageResharder struct {
	migrator FlatKeyMigrator
	config   FlatStorageResharderConfig
	log      *logrus.Entry

	mu      sync.Mutex
	started map[ShardUID]struct{} // keyed by SplitShardEvent.Parent, idempotence guard
}

// NewFlatStorageResharder builds a resharder over migrator with the given
// pacing config.
func NewFlatStorageResharder(migrator FlatKeyMigrator, config FlatStorageResharderConfig) *FlatStorageResharder {
	return &FlatStorageResharder{
		migrator: migrator,
		config:   config,
		log:      logrus.WithField("component", "resharding"),
		started:  make(map[ShardUID]struct{}),
	}
}

// StartResharding returns immediately, having spawned (at most once per
// event.Parent) a background goroutine that migrates flat-storage keys for
// both children. A second call for an event whose parent has already been
// started is a no-op, satisfying spec.md §4.6's idempotence requirement.
//
// handle is observed by the background worker at every batch boundary; once
// cancelled, the worker finishes its current batch, logs, and returns
// without completing the remaining children.
func (r *FlatStorageResharder) StartResharding(ctx context.Context, event SplitShardEvent, handle *ReshardingHandle) error {
	if event.Parent == (ShardUID{}) {
		return fmt.Errorf("%w: zero-value parent ShardUID", ErrFlatStorageStartFailed)
	}

	r.mu.Lock()
	if _, already := r.started[event.Parent]; already {
		r.mu.Unlock()
		r.log.WithField("parent", event.Parent.String()).Debug("resharding: flat storage resharding already started for this parent, skipping")
		return nil
	}
	r.started[event.Parent] = struct{}{}
	r.mu.Unlock()

	taskID := uuid.New()
	log := r.log.WithFields(logrus.Fields{
		"task":   taskID.String(),
		"parent": event.Parent.String(),
	})
	log.Info("resharding: flat storage resharding task starting")

	go r.run(ctx, taskID, event, handle, log)
	return nil
}

func (r *FlatStorageResharder) run(ctx context.Context, taskID uuid.UUID, event SplitShardEvent, handle *ReshardingHandle, log *logrus.Entry) {
	for _, child := range event.Children() {
		if handle.IsCancelled() {
			log.WithField("child", child.String()).Warn("resharding: flat storage resharding cancelled before child completed")
			return
		}
		if err := r.migrateChild(ctx, event.Parent, child, handle, log); err != nil {
			log.WithError(err).WithField("child", child.String()).Error("resharding: flat storage migration failed for child")
			return
		}
	}
	log.Info("resharding: flat storage resharding task complete")
}

func (r *FlatStorageResharder) migrateChild(ctx context.Context, parent, child ShardUID, handle *ReshardingHandle, log *logrus.Entry) error {
	for {
		if handle.IsCancelled() {
			log.WithField("child", child.String()).Warn("resharding: flat storage resharding cancelled mid-child, checkpoint preserved")
			return nil
		}
		done, err := r.migrator.MigrateBatch(ctx, parent, child, r.config.BatchSize)
		if err != nil {
			return fmt.Errorf("resharding: migrate flat storage batch for child %s: %w", child, err)
		}
		if done {
			log.WithField("child", child.String()).Info("resharding: flat storage migration complete for child")
			return nil
		}
	}
}
