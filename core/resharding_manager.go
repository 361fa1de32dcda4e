package core

// resharding_manager.go – component C7: the orchestration entry point.
// Checks the five epoch-boundary gate conditions, and on a hit runs the
// full split sequence (ShardUidMapper writes, MemTrieSplitter, chunk extra
// construction, atomic commit, flat storage handoff) described in spec.md
// §4.7.

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// BlockRef is the minimal block identity the manager's gate conditions need:
// its own hash, its predecessor's hash (to look up the epoch the chain is
// about to enter), and the epoch it belongs to.
type BlockRef struct {
	Hash     Hash
	PrevHash Hash
	EpochID  EpochID
}

//---------------------------------------------------------------------
// WriteBatch
//---------------------------------------------------------------------

// WriteBatch is the buffered, in-memory builder the manager appends the
// split's durable records to before a single blocking commit (spec.md §5:
// "a buffered in-memory builder until commit; commit performs one blocking
// write").
type WriteBatch interface {
	// SaveChunkExtra stores a child's ChunkExtra under its DBCol::State-style
	// namespace as the rlp-encoded bytes ChunkExtraBuilder.Encode produces,
	// mirroring nearcore's "state is written as bytes, not structs" storage
	// model (spec.md §4.5/§157): callers must encode before calling this.
	SaveChunkExtra(shardUID ShardUID, blockHash Hash, data []byte) error
	SaveStateTransitionData(data StateTransitionData) error
	SaveTrieNodes(shardUID ShardUID, insertions map[Hash][]byte) error
	// SaveShardUidMapping stages child's ShardUidMapper entry (spec.md §4.2)
	// into this same batch, so it lands in the same atomic commit as every
	// other write the split produces (spec.md §4.7 step 1, §5: "no direct
	// writes bypass the batch").
	SaveShardUidMapping(child, parent ShardUID) error
	// Merge folds another batch's buffered writes into this one, used to
	// combine the left and right child sub-batches before one commit.
	Merge(sub WriteBatch) error
	// Commit performs the one blocking write. Only after Commit returns nil
	// is the split durable; any error before this point is safe to retry.
	Commit() error
}

//---------------------------------------------------------------------
// Per-(epoch, parent) state machine
//---------------------------------------------------------------------

type reshardingState int

const (
	stateIdle reshardingState = iota
	stateCommitted
	stateFlatStorageInProgress
	stateDone
)

func (s reshardingState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCommitted:
		return "committed"
	case stateFlatStorageInProgress:
		return "flat_storage_in_progress"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

type reshardingKey struct {
	epoch  EpochID
	parent ShardUID
}

//---------------------------------------------------------------------
// ReshardingManager
//---------------------------------------------------------------------

// ReshardingManager implements C7.
type ReshardingManager struct {
	epochs     EpochView
	mapper     *ShardUidMapper
	splitter   *MemTrieSplitter
	congestion *CongestionRecomputer
	extras     *ChunkExtraBuilder
	flat       *FlatStorageResharder
	handle     *ReshardingHandle
	log        *logrus.Entry

	states map[reshardingKey]reshardingState
}

// NewReshardingManager wires together every component this subsystem needs.
// tries backs both the MemTrieSplitter's registry and direct lookups the
// manager itself makes when computing the right child's ReceiptGroupsQueue
// subtraction.
func NewReshardingManager(
	epochs EpochView,
	state StateRW,
	tries MemTrieRegistry,
	flat *FlatStorageResharder,
) *ReshardingManager {
	return &ReshardingManager{
		epochs:     epochs,
		mapper:     NewShardUidMapper(state),
		splitter:   NewMemTrieSplitter(tries),
		congestion: NewCongestionRecomputer(),
		extras:     NewChunkExtraBuilder(),
		flat:       flat,
		handle:     NewReshardingHandle(),
		log:        logrus.WithField("component", "resharding"),
		states:     make(map[reshardingKey]reshardingState),
	}
}

// Handle returns the cancellation handle shared with the flat storage
// resharder's background worker.
func (m *ReshardingManager) Handle() *ReshardingHandle { return m.handle }

// parentChunkExtra, preSplitDestShards and childTrie are host-supplied
// collaborators the manager needs but does not own the lifecycle of: the
// parent's last ChunkExtra (to derive children from), the destination shard
// ids congestion accounting must subtract over, and read access to the
// frozen parent/derived child tries for congestion recomputation.
type StartReshardingInput struct {
	Block             BlockRef
	ShardUID          ShardUID
	ParentChunkExtra  *ChunkExtra
	PreSplitDestShards []uint32
	AllShardIDs       []uint32
}

// StartResharding is the public operation (spec.md §4.7). It checks all five
// gate conditions; a failed gate is logged and returns nil (success without
// effect), never an error. A true hit runs the full sequence through to the
// flat-storage handoff.
func (m *ReshardingManager) StartResharding(ctx context.Context, batch WriteBatch, in StartReshardingInput) error {
	event, err := m.checkGates(in.Block, in.ShardUID)
	if err != nil {
		var skip *gateSkip
		if errors.As(err, &skip) {
			m.log.WithField("reason", skip.reason).Info("resharding: gate not satisfied, no-op")
			return nil
		}
		return err
	}

	key := reshardingKey{epoch: in.Block.EpochID, parent: event.Parent}
	if m.states[key] != stateIdle {
		m.log.WithFields(logrus.Fields{
			"epoch":  fmt.Sprintf("%x", in.Block.EpochID),
			"parent": event.Parent.String(),
			"state":  m.states[key].String(),
		}).Debug("resharding: already past idle for this (epoch, parent), skipping")
		return nil
	}

	if err := m.runSplit(batch, event, in); err != nil {
		return fmt.Errorf("resharding: split for parent %s: %w", event.Parent, err)
	}
	m.states[key] = stateCommitted

	if err := m.flat.StartResharding(ctx, event, m.handle); err != nil {
		return fmt.Errorf("%w: %v", ErrFlatStorageStartFailed, err)
	}
	m.states[key] = stateFlatStorageInProgress

	m.log.WithFields(logrus.Fields{
		"parent": event.Parent.String(),
		"left":   event.LeftChild.String(),
		"right":  event.RightChild.String(),
	}).Info("resharding: split committed, flat storage migration underway")
	return nil
}

// MarkFlatStorageDone transitions (epoch, parent) to Done once the host has
// observed C6's background task finish. The manager itself has no visibility
// into the worker's completion; the host calls this from wherever it already
// tracks FlatKeyMigrator progress.
func (m *ReshardingManager) MarkFlatStorageDone(epoch EpochID, parent ShardUID) {
	m.states[reshardingKey{epoch: epoch, parent: parent}] = stateDone
}

//---------------------------------------------------------------------
// gate conditions
//---------------------------------------------------------------------

func (m *ReshardingManager) checkGates(block BlockRef, shardUID ShardUID) (SplitShardEvent, error) {
	isEpochStart, err := m.epochs.IsNextBlockEpochStart(block.Hash)
	if err != nil {
		return SplitShardEvent{}, fmt.Errorf("resharding: is_next_block_epoch_start: %w", err)
	}
	if !isEpochStart {
		return SplitShardEvent{}, newGateSkip("next block is not an epoch boundary")
	}

	curLayout, err := m.epochs.ShardLayout(block.EpochID)
	if err != nil {
		return SplitShardEvent{}, fmt.Errorf("resharding: shard_layout(block.epoch_id): %w", err)
	}
	nextEpoch, err := m.epochs.NextEpochIDFromPrevBlock(block.PrevHash)
	if err != nil {
		return SplitShardEvent{}, fmt.Errorf("resharding: next_epoch_from_prev: %w", err)
	}
	nextLayout, err := m.epochs.ShardLayout(nextEpoch)
	if err != nil {
		return SplitShardEvent{}, fmt.Errorf("resharding: shard_layout(next_epoch): %w", err)
	}
	if curLayout.Equal(nextLayout) {
		return SplitShardEvent{}, newGateSkip("prev block has the same shard layout")
	}

	if !nextLayout.IsSplitCapable() {
		return SplitShardEvent{}, newGateSkip("next shard layout is not split-capable")
	}

	event, ok := NewSplitShardEventFromLayout(nextLayout, shardUID, block.Hash)
	if !ok {
		return SplitShardEvent{}, newGateSkip("no split shard event derivable from next layout for this shard")
	}

	return event, nil
}

//---------------------------------------------------------------------
// sequencing
//---------------------------------------------------------------------

// runSplit performs the whole in-memory sequence, staging every write -
// both ShardUidMappings (spec.md §4.7 step 1) and the two children's chunk
// extras/trie nodes/state transition data - into the same batch before the
// single Commit call. Nothing is written through any other path, so a crash
// anywhere before Commit returns leaves no partial state, and a crash after
// Commit returns leaves all of it (P8).
func (m *ReshardingManager) runSplit(batch WriteBatch, event SplitShardEvent, in StartReshardingInput) error {
	if err := batch.SaveShardUidMapping(event.LeftChild, event.Parent); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveShardUidMapping(event.RightChild, event.Parent); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	left, right, err := m.splitter.Split(event)
	if err != nil {
		return err
	}

	leftExtra := m.extras.BuildChild(in.ParentChunkExtra, left.Changes.NewRoot, m.congestion.RecomputeLeft(in.ParentChunkExtra.CongestionInfo))
	leftExtraBytes, err := m.extras.Encode(leftExtra)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveChunkExtra(event.LeftChild, event.BlockHash, leftExtraBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveTrieNodes(event.LeftChild, left.Changes.Insertions); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveStateTransitionData(StateTransitionData{
		BlockHash: event.BlockHash,
		ShardID:   event.LeftChild.ID,
		Witness:   left.Witness,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	var rightCongestion *CongestionInfo
	if in.ParentChunkExtra.CongestionInfo != nil {
		rightChildTrie := &Trie{root: right.Changes.childRoot}
		rightCongestion, err = m.congestion.RecomputeRight(in.ParentChunkExtra.CongestionInfo, m.parentTrieView(event), rightChildTrie, in.PreSplitDestShards)
		if err != nil {
			return err
		}
		if seed, err := indexOf(in.AllShardIDs, event.RightChild.ID); err == nil {
			rightCongestion.finalizeAllowedShard(event.RightChild.ID, in.AllShardIDs, uint64(seed))
		}
	}

	rightExtra := m.extras.BuildChild(in.ParentChunkExtra, right.Changes.NewRoot, rightCongestion)
	rightExtraBytes, err := m.extras.Encode(rightExtra)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveChunkExtra(event.RightChild, event.BlockHash, rightExtraBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveTrieNodes(event.RightChild, right.Changes.Insertions); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := batch.SaveStateTransitionData(StateTransitionData{
		BlockHash: event.BlockHash,
		ShardID:   event.RightChild.ID,
		Witness:   right.Witness,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	m.splitter.ApplyMemtrieChanges(left)
	m.splitter.ApplyMemtrieChanges(right)
	return nil
}

// parentTrieView recovers a read-only Trie view over the frozen parent, used
// only for C4's pre-split ReceiptGroupsQueue subtraction.
func (m *ReshardingManager) parentTrieView(event SplitShardEvent) *Trie {
	parent, ok := m.splitter.registry.Get(event.Parent)
	if !ok {
		return &Trie{}
	}
	return &Trie{root: parent.snapshotRoot()}
}

func indexOf(ids []uint32, target uint32) (int, error) {
	for i, id := range ids {
		if id == target {
			return i, nil
		}
	}
	return 0, fmt.Errorf("resharding: shard %d not present in shard id list", target)
}
