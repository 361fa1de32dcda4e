package core

// resharding_errors.go – error taxonomy for the resharding core, matching
// spec.md §7 exactly: GateNotSatisfied is a non-error (success with a log
// line), everything else is fatal to the current split attempt.

import "errors"

var (
	// ErrMemtrieNotLoaded is returned when a child shard's in-memory trie is
	// not resident. Non-retryable without operator intervention (the node
	// must load the memtrie before the epoch boundary).
	ErrMemtrieNotLoaded = errors.New("resharding: memtrie not loaded")

	// ErrTrieCorruption is returned when the trie walk encounters a missing
	// referenced node. Implies underlying storage damage.
	ErrTrieCorruption = errors.New("resharding: trie corruption: missing referenced node")

	// ErrStorageIO wraps a failure in the write-batch or underlying store.
	// The batch is discarded; retry on the next block boundary is acceptable
	// only if the gate still holds.
	ErrStorageIO = errors.New("resharding: storage I/O failure")

	// ErrFlatStorageStartFailed is returned when C6's start_resharding call
	// itself fails (not its background work, which is resumable).
	ErrFlatStorageStartFailed = errors.New("resharding: flat storage resharder failed to start")

	// ErrCongestionInvariant indicates the buffered-receipt conservation
	// check in CongestionRecomputer failed. This is never returned to a
	// caller to recover from: it is a crash-stop condition (spec.md §7).
	ErrCongestionInvariant = errors.New("resharding: congestion info conservation invariant violated")
)

// gateSkip is the sentinel used internally to short-circuit
// ReshardingManager.StartResharding when a gate condition is not satisfied.
// It is never returned to callers: the manager translates it into (nil, log
// line), per spec.md §7's "not truly an error" classification.
type gateSkip struct {
	reason string
}

func (g *gateSkip) Error() string { return "resharding: gate not satisfied: " + g.reason }

func newGateSkip(reason string) *gateSkip { return &gateSkip{reason: reason} }
