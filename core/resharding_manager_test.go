package core

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

// fakeWriteBatch buffers every write in memory and only applies the
// ShardUidMapper entries to the backing StateRW from inside Commit, the same
// way a real WriteBatch implementation would only flush its staged writes
// into the durable store on a successful commit: a failed Commit must never
// let a mapping reach state.
type fakeWriteBatch struct {
	state            StateRW
	chunkExtras      map[ShardUID][]byte
	trieNodes        map[ShardUID]map[Hash][]byte
	transitions      []StateTransitionData
	shardUidMappings map[ShardUID]ShardUID
	commitErr        error
	commitCalls      int
	mergeCalls       int
}

func newFakeWriteBatch(state StateRW) *fakeWriteBatch {
	return &fakeWriteBatch{
		state:            state,
		chunkExtras:      make(map[ShardUID][]byte),
		trieNodes:        make(map[ShardUID]map[Hash][]byte),
		shardUidMappings: make(map[ShardUID]ShardUID),
	}
}

func (b *fakeWriteBatch) SaveChunkExtra(shardUID ShardUID, blockHash Hash, data []byte) error {
	b.chunkExtras[shardUID] = data
	return nil
}

func (b *fakeWriteBatch) SaveStateTransitionData(data StateTransitionData) error {
	b.transitions = append(b.transitions, data)
	return nil
}

func (b *fakeWriteBatch) SaveTrieNodes(shardUID ShardUID, insertions map[Hash][]byte) error {
	dst, ok := b.trieNodes[shardUID]
	if !ok {
		dst = make(map[Hash][]byte)
		b.trieNodes[shardUID] = dst
	}
	for h, v := range insertions {
		dst[h] = v
	}
	return nil
}

func (b *fakeWriteBatch) SaveShardUidMapping(child, parent ShardUID) error {
	b.shardUidMappings[child] = parent
	return nil
}

func (b *fakeWriteBatch) Merge(sub WriteBatch) error {
	b.mergeCalls++
	return nil
}

func (b *fakeWriteBatch) Commit() error {
	b.commitCalls++
	if b.commitErr != nil {
		return b.commitErr
	}
	for child, parent := range b.shardUidMappings {
		if err := b.state.Set([]byte(shardUIDMappingNamespace), shardUIDMappingKey(child), parent.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// splitScenario builds a manager wired against a resident parent memtrie
// holding {"a","m","z"} with boundary "m", and an epoch view whose only
// recorded transition is an epoch boundary at block splitBlock that moves
// from a single-shard layout to a two-shard split-capable one.
func splitScenario(t *testing.T) (mgr *ReshardingManager, event BlockRef, parent ShardUID, migrator *fakeFlatKeyMigrator, tries MemTrieRegistry, state StateRW) {
	t.Helper()

	parentShard := ShardUID{Version: 1, ID: 0}
	leftChild := ShardUID{Version: 2, ID: 1}
	rightChild := ShardUID{Version: 2, ID: 2}

	parentTrie := NewMemTrie()
	parentTrie.Update([]byte("a"), []byte("v:a"))
	parentTrie.Update([]byte("m"), []byte("v:m"))
	parentTrie.Update([]byte("z"), []byte("v:z"))

	tries = NewMapMemTrieRegistry(map[ShardUID]*MemTrie{parentShard: parentTrie})

	blockHash := Hash{0xaa}
	prevHash := Hash{0xbb}
	curEpoch := EpochID{0x01}
	nextEpoch := EpochID{0x02}

	curLayout := ShardLayout{Version: 1, Shards: []ShardUID{parentShard}}
	nextLayout := ShardLayout{
		Version:    2,
		Boundaries: []string{"m"},
		Shards:     []ShardUID{leftChild, rightChild},
	}

	epochs := &StaticEpochView{
		Layouts: map[EpochID]ShardLayout{
			curEpoch:  curLayout,
			nextEpoch: nextLayout,
		},
		NextEpochFromPrev: map[Hash]EpochID{prevHash: nextEpoch},
		EpochStartBlocks:  map[Hash]bool{blockHash: true},
	}

	migrator = &fakeFlatKeyMigrator{batchesLeft: map[ShardUID]int{
		leftChild:  1,
		rightChild: 1,
	}}
	flat := NewFlatStorageResharder(migrator, FlatStorageResharderConfig{BatchSize: 10})

	state, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}

	mgr = NewReshardingManager(epochs, state, tries, flat)

	return mgr, BlockRef{Hash: blockHash, PrevHash: prevHash, EpochID: curEpoch}, parentShard, migrator, tries, state
}

func baseInput(shardUID ShardUID) StartReshardingInput {
	return StartReshardingInput{
		ShardUID: shardUID,
		ParentChunkExtra: &ChunkExtra{
			StateRoot: Hash{0x11},
			CongestionInfo: &CongestionInfo{
				BufferedReceiptsGas:   big.NewInt(0),
				BufferedReceiptsBytes: 0,
				DelayedReceiptsGas:    big.NewInt(0),
			},
			GasUsed: 7,
		},
		PreSplitDestShards: nil,
		AllShardIDs:        []uint32{1, 2},
	}
}

func TestReshardingManagerSplitCommitsAndStartsFlatStorage(t *testing.T) {
	mgr, block, parentShard, migrator, _, state := splitScenario(t)
	in := baseInput(parentShard)
	in.Block = block

	batch := newFakeWriteBatch(state)
	if err := mgr.StartResharding(context.Background(), batch, in); err != nil {
		t.Fatalf("StartResharding: %v", err)
	}

	leftChild := ShardUID{Version: 2, ID: 1}
	rightChild := ShardUID{Version: 2, ID: 2}

	if batch.commitCalls != 1 {
		t.Fatalf("expected exactly one batch commit, got %d", batch.commitCalls)
	}
	leftExtraBytes, ok := batch.chunkExtras[leftChild]
	if !ok || len(leftExtraBytes) == 0 {
		t.Fatalf("left child chunk extra was never saved")
	}
	rightExtraBytes, ok := batch.chunkExtras[rightChild]
	if !ok || len(rightExtraBytes) == 0 {
		t.Fatalf("right child chunk extra was never saved")
	}

	extras := NewChunkExtraBuilder()
	leftExtra, err := extras.Decode(leftExtraBytes)
	if err != nil {
		t.Fatalf("decode left child chunk extra: %v", err)
	}
	if leftExtra.StateRoot == in.ParentChunkExtra.StateRoot {
		t.Fatalf("left child's saved chunk extra still carries the parent's state root")
	}
	rightExtra, err := extras.Decode(rightExtraBytes)
	if err != nil {
		t.Fatalf("decode right child chunk extra: %v", err)
	}
	if rightExtra.StateRoot == in.ParentChunkExtra.StateRoot {
		t.Fatalf("right child's saved chunk extra still carries the parent's state root")
	}
	if len(batch.transitions) != 2 {
		t.Fatalf("expected state transition data for both children, got %d entries", len(batch.transitions))
	}

	waitFor(t, 2*time.Second, func() bool {
		migrator.mu.Lock()
		defer migrator.mu.Unlock()
		return migrator.batchesLeft[leftChild] <= 0 && migrator.batchesLeft[rightChild] <= 0
	})

	p, ok, err := mgr.mapper.ParentOf(leftChild)
	if err != nil || !ok || p != parentShard {
		t.Fatalf("left child's parent mapping missing or wrong: ok=%v p=%v err=%v", ok, p, err)
	}
	p, ok, err = mgr.mapper.ParentOf(rightChild)
	if err != nil || !ok || p != parentShard {
		t.Fatalf("right child's parent mapping missing or wrong: ok=%v p=%v err=%v", ok, p, err)
	}
}

func TestReshardingManagerGateSkipIsNoop(t *testing.T) {
	mgr, block, parentShard, _, _, state := splitScenario(t)
	block.Hash = Hash{0xff} // not recorded as an epoch-start block
	in := baseInput(parentShard)
	in.Block = block

	batch := newFakeWriteBatch(state)
	if err := mgr.StartResharding(context.Background(), batch, in); err != nil {
		t.Fatalf("StartResharding on a gate miss must return nil, got %v", err)
	}
	if batch.commitCalls != 0 {
		t.Fatalf("gate miss must not touch the write batch, got %d commits", batch.commitCalls)
	}
	if len(batch.chunkExtras) != 0 {
		t.Fatalf("gate miss must not save any chunk extras")
	}
}

func TestReshardingManagerIdempotentPerEpochParent(t *testing.T) {
	mgr, block, parentShard, _, _, state := splitScenario(t)
	in := baseInput(parentShard)
	in.Block = block

	batch1 := newFakeWriteBatch(state)
	if err := mgr.StartResharding(context.Background(), batch1, in); err != nil {
		t.Fatalf("first StartResharding: %v", err)
	}

	batch2 := newFakeWriteBatch(state)
	if err := mgr.StartResharding(context.Background(), batch2, in); err != nil {
		t.Fatalf("second StartResharding (should be a no-op): %v", err)
	}
	if batch2.commitCalls != 0 {
		t.Fatalf("a retry for an already-committed (epoch, parent) must not commit again, got %d commits", batch2.commitCalls)
	}
}

func TestReshardingManagerCrashMidCommitLeavesNoMapping(t *testing.T) {
	mgr, block, parentShard, _, _, state := splitScenario(t)
	in := baseInput(parentShard)
	in.Block = block

	batch := newFakeWriteBatch(state)
	batch.commitErr = errors.New("simulated disk failure")

	err := mgr.StartResharding(context.Background(), batch, in)
	if err == nil {
		t.Fatalf("expected an error from a failed commit")
	}
	if !errors.Is(err, ErrStorageIO) {
		t.Fatalf("expected ErrStorageIO, got %v", err)
	}

	leftChild := ShardUID{Version: 2, ID: 1}
	rightChild := ShardUID{Version: 2, ID: 2}
	if _, ok, _ := mgr.mapper.ParentOf(leftChild); ok {
		t.Fatalf("left child mapping must not be persisted when commit failed")
	}
	if _, ok, _ := mgr.mapper.ParentOf(rightChild); ok {
		t.Fatalf("right child mapping must not be persisted when commit failed")
	}

	key := reshardingKey{epoch: block.EpochID, parent: parentShard}
	if mgr.states[key] != stateIdle {
		t.Fatalf("state machine must stay at idle after a failed commit, got %s", mgr.states[key])
	}
}

func TestReshardingManagerRetryAfterCrashSucceeds(t *testing.T) {
	mgr, block, parentShard, _, _, state := splitScenario(t)
	in := baseInput(parentShard)
	in.Block = block

	failing := newFakeWriteBatch(state)
	failing.commitErr = errors.New("simulated disk failure")
	if err := mgr.StartResharding(context.Background(), failing, in); err == nil {
		t.Fatalf("expected the first attempt to fail")
	}

	retry := newFakeWriteBatch(state)
	if err := mgr.StartResharding(context.Background(), retry, in); err != nil {
		t.Fatalf("retry after a crash must succeed once the underlying failure is gone: %v", err)
	}
	if retry.commitCalls != 1 {
		t.Fatalf("expected the retry to commit exactly once, got %d", retry.commitCalls)
	}
}

func TestReshardingManagerMemtrieNotLoaded(t *testing.T) {
	mgr, block, _, _, tries, state := splitScenario(t)
	unknownParent := ShardUID{Version: 1, ID: 99}
	if _, ok := tries.Get(unknownParent); ok {
		t.Fatalf("test setup invariant broken: unknownParent should not be resident")
	}
	in := baseInput(unknownParent)
	in.Block = block

	batch := newFakeWriteBatch(state)
	err := mgr.StartResharding(context.Background(), batch, in)
	if !errors.Is(err, ErrMemtrieNotLoaded) {
		t.Fatalf("expected ErrMemtrieNotLoaded for a parent with no resident memtrie, got %v", err)
	}
	if batch.commitCalls != 0 {
		t.Fatalf("a failed split must never reach batch.Commit")
	}
}

func TestFakeWriteBatchMerge(t *testing.T) {
	state, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	sub := newFakeWriteBatch(state)
	main := newFakeWriteBatch(state)
	if err := main.Merge(sub); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if main.mergeCalls != 1 {
		t.Fatalf("expected Merge to be recorded once, got %d", main.mergeCalls)
	}
}
