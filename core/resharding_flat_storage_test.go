package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeFlatKeyMigrator counts calls per child and finishes after a fixed
// number of batches, optionally returning an error for a chosen child.
type fakeFlatKeyMigrator struct {
	mu          sync.Mutex
	batchesLeft map[ShardUID]int
	failChild   ShardUID
	calls       int
}

func (f *fakeFlatKeyMigrator) MigrateBatch(ctx context.Context, parent, child ShardUID, batchSize int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if child == f.failChild {
		return false, errors.New("simulated migration failure")
	}
	f.batchesLeft[child]--
	return f.batchesLeft[child] <= 0, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestFlatStorageResharderMigratesBothChildren(t *testing.T) {
	event := SplitShardEvent{
		Parent:          ShardUID{Version: 1, ID: 0},
		LeftChild:       ShardUID{Version: 2, ID: 1},
		RightChild:      ShardUID{Version: 2, ID: 2},
		BoundaryAccount: "m",
	}
	migrator := &fakeFlatKeyMigrator{batchesLeft: map[ShardUID]int{
		event.LeftChild:  2,
		event.RightChild: 3,
	}}
	resharder := NewFlatStorageResharder(migrator, FlatStorageResharderConfig{BatchSize: 10})
	handle := NewReshardingHandle()

	if err := resharder.StartResharding(context.Background(), event, handle); err != nil {
		t.Fatalf("StartResharding: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		migrator.mu.Lock()
		defer migrator.mu.Unlock()
		return migrator.batchesLeft[event.LeftChild] <= 0 && migrator.batchesLeft[event.RightChild] <= 0
	})
}

func TestFlatStorageResharderIdempotentPerParent(t *testing.T) {
	event := SplitShardEvent{
		Parent:     ShardUID{Version: 1, ID: 0},
		LeftChild:  ShardUID{Version: 2, ID: 1},
		RightChild: ShardUID{Version: 2, ID: 2},
	}
	migrator := &fakeFlatKeyMigrator{batchesLeft: map[ShardUID]int{
		event.LeftChild:  1,
		event.RightChild: 1,
	}}
	resharder := NewFlatStorageResharder(migrator, FlatStorageResharderConfig{BatchSize: 10})
	handle := NewReshardingHandle()

	if err := resharder.StartResharding(context.Background(), event, handle); err != nil {
		t.Fatalf("first StartResharding: %v", err)
	}
	if err := resharder.StartResharding(context.Background(), event, handle); err != nil {
		t.Fatalf("second StartResharding (should be a no-op): %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		migrator.mu.Lock()
		defer migrator.mu.Unlock()
		return migrator.batchesLeft[event.LeftChild] <= 0 && migrator.batchesLeft[event.RightChild] <= 0
	})

	migrator.mu.Lock()
	calls := migrator.calls
	migrator.mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected exactly 2 migration calls (one per child, once), got %d", calls)
	}
}

func TestFlatStorageResharderCancellation(t *testing.T) {
	event := SplitShardEvent{
		Parent:     ShardUID{Version: 1, ID: 0},
		LeftChild:  ShardUID{Version: 2, ID: 1},
		RightChild: ShardUID{Version: 2, ID: 2},
	}
	migrator := &fakeFlatKeyMigrator{batchesLeft: map[ShardUID]int{
		event.LeftChild:  1000000,
		event.RightChild: 1000000,
	}}
	resharder := NewFlatStorageResharder(migrator, FlatStorageResharderConfig{BatchSize: 10})
	handle := NewReshardingHandle()

	if err := resharder.StartResharding(context.Background(), event, handle); err != nil {
		t.Fatalf("StartResharding: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	handle.SetCancelled()

	waitFor(t, 2*time.Second, func() bool {
		migrator.mu.Lock()
		defer migrator.mu.Unlock()
		return migrator.calls > 0
	})
	// The worker checks handle.IsCancelled() before every batch, so once
	// cancelled it stops making progress within a call or two; confirm the
	// call count has stabilized rather than still climbing.
	time.Sleep(100 * time.Millisecond)
	migrator.mu.Lock()
	settled := migrator.calls
	migrator.mu.Unlock()
	time.Sleep(100 * time.Millisecond)
	migrator.mu.Lock()
	after := migrator.calls
	migrator.mu.Unlock()
	if after != settled {
		t.Fatalf("migration kept making progress after cancellation: settled=%d after=%d", settled, after)
	}
}
