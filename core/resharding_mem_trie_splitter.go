package core

// resharding_mem_trie_splitter.go – component C3's orchestration half: the
// freeze-and-derive protocol that turns one resident parent MemTrie into two
// child MemTries (spec.md §4.3). resharding_trie.go owns the data structure
// and the single-side retain_split_shard walk; this file owns sequencing,
// residency checks, and applying the walk's output back onto real MemTries.

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MemTrieRegistry is the host-provided lookup the splitter uses to find the
// resident MemTrie for a given shard, standing in for the node's real
// ShardTries registry. Tests supply a map-backed implementation.
type MemTrieRegistry interface {
	// Get returns the resident MemTrie for shardUID, or ok=false if it is not
	// currently loaded in memory.
	Get(shardUID ShardUID) (trie *MemTrie, ok bool)
	// Insert registers a newly created child MemTrie, replacing any existing
	// entry for that ShardUID (StartResharding never calls this twice for the
	// same child within one attempt, but a retried attempt may).
	Insert(shardUID ShardUID, trie *MemTrie)
}

// MemTrieSplitResult is everything the rest of StartResharding needs from one
// side of the split: the new child root, the witness sufficient to replay
// this side's walk, and the new child's physical-key insertions.
type MemTrieSplitResult struct {
	Child   ShardUID
	Changes *TrieChanges
	Witness PartialState
}

// MemTrieSplitter runs the freeze-and-derive protocol for one SplitShardEvent.
type MemTrieSplitter struct {
	registry MemTrieRegistry
	log      *logrus.Entry
}

// NewMemTrieSplitter builds a splitter over registry, logging under the
// resharding component tag (SPEC_FULL.md's ambient stack section).
func NewMemTrieSplitter(registry MemTrieRegistry) *MemTrieSplitter {
	return &MemTrieSplitter{
		registry: registry,
		log:      logrus.WithField("component", "resharding"),
	}
}

// Split freezes the parent MemTrie named by event.Parent and derives both
// children in strict left-then-right order (spec.md §4.3: "process the left
// child before the right child, always"). The parent is left frozen; it is
// never unfrozen by this call, matching the "retired" parent lifecycle spec.md
// describes.
//
// Returns ErrMemtrieNotLoaded if the parent is not resident. A missing
// referenced node mid-walk surfaces as ErrTrieCorruption, wrapped with the
// offending side for diagnostics.
func (s *MemTrieSplitter) Split(event SplitShardEvent) (left, right *MemTrieSplitResult, err error) {
	parent, ok := s.registry.Get(event.Parent)
	if !ok {
		return nil, nil, fmt.Errorf("%w: parent shard %s", ErrMemtrieNotLoaded, event.Parent)
	}

	parent.Freeze()
	s.log.WithFields(logrus.Fields{
		"parent":   event.Parent.String(),
		"boundary": event.BoundaryAccount,
	}).Info("resharding: parent memtrie frozen, starting split")

	root := parent.snapshotRoot()
	boundary := []byte(event.BoundaryAccount)

	left, err = s.splitSide(root, boundary, RetainLeft, event.LeftChild)
	if err != nil {
		return nil, nil, fmt.Errorf("resharding: left child split (parent %s): %w", event.Parent, err)
	}

	right, err = s.splitSide(root, boundary, RetainRight, event.RightChild)
	if err != nil {
		return nil, nil, fmt.Errorf("resharding: right child split (parent %s): %w", event.Parent, err)
	}

	return left, right, nil
}

func (s *MemTrieSplitter) splitSide(root *trieNode, boundary []byte, mode RetainMode, child ShardUID) (*MemTrieSplitResult, error) {
	recorder := NewTrieRecorder()
	changes, err := retainSplitShard(root, boundary, mode, recorder)
	if err != nil {
		return nil, err
	}
	return &MemTrieSplitResult{
		Child:   child,
		Changes: changes,
		Witness: recorder.RecordedStorage(),
	}, nil
}

// ApplyMemtrieChanges installs result's derived root as child's resident
// MemTrie, replacing whatever (if anything) the registry previously held for
// that ShardUID. Called only after the owning write batch has committed the
// physical-key insertions, so the in-memory view never runs ahead of durable
// storage (spec.md §4.7's commit-before-install ordering).
func (s *MemTrieSplitter) ApplyMemtrieChanges(result *MemTrieSplitResult) {
	child := NewMemTrie()
	child.installRoot(result.Changes.childRoot)
	s.registry.Insert(result.Child, child)
	s.log.WithFields(logrus.Fields{
		"child": result.Child.String(),
		"root":  result.Changes.NewRoot.Hex(),
	}).Info("resharding: child memtrie installed")
}

// mapMemTrieRegistry is a simple in-memory MemTrieRegistry, used by
// ReshardingManager's default wiring and by tests.
type mapMemTrieRegistry struct {
	tries map[ShardUID]*MemTrie
}

// NewMapMemTrieRegistry returns a MemTrieRegistry backed by a plain map,
// seeded with the given resident tries.
func NewMapMemTrieRegistry(seed map[ShardUID]*MemTrie) MemTrieRegistry {
	tries := make(map[ShardUID]*MemTrie, len(seed))
	for k, v := range seed {
		tries[k] = v
	}
	return &mapMemTrieRegistry{tries: tries}
}

func (r *mapMemTrieRegistry) Get(shardUID ShardUID) (*MemTrie, bool) {
	t, ok := r.tries[shardUID]
	return t, ok
}

func (r *mapMemTrieRegistry) Insert(shardUID ShardUID, trie *MemTrie) {
	r.tries[shardUID] = trie
}
