package core

// resharding_types.go – data model for the shard-splitting resharding core.
//
// These types back the subsystem that, at an epoch boundary, splits one
// parent shard's authenticated trie into two child shards according to a
// configured account-name boundary. See resharding_manager.go for the
// orchestration entry point.

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
)

//---------------------------------------------------------------------
// ShardUID / ShardLayout
//---------------------------------------------------------------------

// ShardUID is the stable physical identifier of a shard within a layout
// version. Physical storage keys are prefixed with the owning ShardUID.
//
// This is distinct from the lightweight ShardID used by the static
// hash-based sharding in sharding.go: that one never changes identity across
// epochs, this one is versioned and is what resharding produces/consumes.
type ShardUID struct {
	Version uint32
	ID      uint32
}

// Bytes returns the 8-byte physical key prefix: 4 bytes version, 4 bytes
// shard id, big-endian, matching the DBCol::State key contract in spec.md §6.
func (s ShardUID) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], s.Version)
	binary.BigEndian.PutUint32(b[4:8], s.ID)
	return b
}

func (s ShardUID) String() string {
	return fmt.Sprintf("s%d.v%d", s.ID, s.Version)
}

// ShardUIDFromBytes decodes the encoding produced by ShardUID.Bytes.
func ShardUIDFromBytes(b []byte) (ShardUID, error) {
	if len(b) != 8 {
		return ShardUID{}, fmt.Errorf("resharding: invalid ShardUID encoding: want 8 bytes, got %d", len(b))
	}
	return ShardUID{
		Version: binary.BigEndian.Uint32(b[0:4]),
		ID:      binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

// ShardLayout is a versioned mapping from account identifiers to shards,
// partitioning the account-name space by zero or more sorted boundary
// accounts. len(Shards) == len(Boundaries)+1.
type ShardLayout struct {
	Version    uint32
	Boundaries []string
	Shards     []ShardUID
}

// ShardForAccount returns the shard owning the given account name under this
// layout.
func (l ShardLayout) ShardForAccount(account string) (ShardUID, error) {
	idx := sort.SearchStrings(l.Boundaries, account)
	// SearchStrings returns the insertion point for account among sorted
	// Boundaries; since boundaries are left-open (the boundary account
	// itself belongs to the shard to its right), an exact match must also
	// advance past it.
	if idx < len(l.Boundaries) && l.Boundaries[idx] == account {
		idx++
	}
	if idx >= len(l.Shards) {
		return ShardUID{}, fmt.Errorf("account %q out of range of shard layout v%d", account, l.Version)
	}
	return l.Shards[idx], nil
}

// ShardIDs returns the shard ids present in this layout, in layout order.
func (l ShardLayout) ShardIDs() []uint32 {
	out := make([]uint32, len(l.Shards))
	for i, s := range l.Shards {
		out[i] = s.ID
	}
	return out
}

// ShardIndex returns the position of shardID within this layout's shard
// list, used as the congestion-info allowed-shard seed.
func (l ShardLayout) ShardIndex(shardID uint32) (int, error) {
	for i, s := range l.Shards {
		if s.ID == shardID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("shard %d not present in layout v%d", shardID, l.Version)
}

// Equal reports whether two layouts are identical (used by the manager's
// gate check #2: "shard_layout(block) != shard_layout(next)").
func (l ShardLayout) Equal(o ShardLayout) bool {
	if l.Version != o.Version || len(l.Boundaries) != len(o.Boundaries) || len(l.Shards) != len(o.Shards) {
		return false
	}
	for i := range l.Boundaries {
		if l.Boundaries[i] != o.Boundaries[i] {
			return false
		}
	}
	for i := range l.Shards {
		if l.Shards[i] != o.Shards[i] {
			return false
		}
	}
	return true
}

// IsSplitCapable reports whether this layout carries exactly one boundary,
// i.e. is the two-child split variant spec.md §4.7's gate condition #3 checks
// for (the "V2"-equivalent of nearcore's ShardLayout::V2 match).
func (l ShardLayout) IsSplitCapable() bool {
	return len(l.Boundaries) == 1 && len(l.Shards) == 2
}

//---------------------------------------------------------------------
// RetainMode
//---------------------------------------------------------------------

// RetainMode selects which side of the boundary account a trie split keeps.
type RetainMode int

const (
	// RetainLeft keeps keys strictly less than the boundary account.
	RetainLeft RetainMode = iota
	// RetainRight keeps keys greater than or equal to the boundary account
	// (the boundary account itself belongs to the right child).
	RetainRight
)

func (m RetainMode) String() string {
	if m == RetainLeft {
		return "left"
	}
	return "right"
}

//---------------------------------------------------------------------
// SplitShardEvent
//---------------------------------------------------------------------

// SplitShardEvent describes a single parent-shard split. Immutable once
// constructed; consumed exactly once by the trie splitter and once by the
// flat-storage resharder.
type SplitShardEvent struct {
	Parent          ShardUID
	LeftChild       ShardUID
	RightChild      ShardUID
	BoundaryAccount string
	BlockHash       Hash
}

// Children returns the event's two children in split order: left before
// right, matching the ordering guarantee in spec.md §4.3.
func (e SplitShardEvent) Children() []ShardUID {
	return []ShardUID{e.LeftChild, e.RightChild}
}

// Validate enforces the SplitShardEvent invariant from spec.md §3: left and
// right children are distinct and share the next layout version.
func (e SplitShardEvent) Validate() error {
	if e.LeftChild == e.RightChild {
		return fmt.Errorf("resharding: left and right child shards must be distinct, got %v twice", e.LeftChild)
	}
	if e.LeftChild.Version != e.RightChild.Version {
		return fmt.Errorf("resharding: left child version %d != right child version %d", e.LeftChild.Version, e.RightChild.Version)
	}
	if e.BoundaryAccount == "" {
		return fmt.Errorf("resharding: boundary account must not be empty")
	}
	return nil
}

// NewSplitShardEventFromLayout derives the SplitShardEvent for parent that a
// next layout with exactly one boundary account implies, if that layout is
// indeed a split of parent. Returns (zero, false) if no such event exists
// (gate condition #4 in spec.md §4.7).
func NewSplitShardEventFromLayout(next ShardLayout, parent ShardUID, blockHash Hash) (SplitShardEvent, bool) {
	if !next.IsSplitCapable() {
		return SplitShardEvent{}, false
	}
	ev := SplitShardEvent{
		Parent:          parent,
		LeftChild:       next.Shards[0],
		RightChild:      next.Shards[1],
		BoundaryAccount: next.Boundaries[0],
		BlockHash:       blockHash,
	}
	if ev.Validate() != nil {
		return SplitShardEvent{}, false
	}
	return ev, true
}

//---------------------------------------------------------------------
// CongestionInfo / ReceiptGroupsQueue
//---------------------------------------------------------------------

// CongestionInfo is the aggregate buffered-receipt accounting per shard.
// The gas fields are u128 in the source protocol; modeled here as *big.Int
// to match the amount-field convention already used throughout
// common_structs.go (e.g. UTXO, Coin).
type CongestionInfo struct {
	BufferedReceiptsGas   *big.Int
	BufferedReceiptsBytes uint64
	DelayedReceiptsGas    *big.Int
	AllowedShard          uint32
}

// Clone returns a deep copy so callers can mutate without aliasing the
// parent's CongestionInfo.
func (c *CongestionInfo) Clone() *CongestionInfo {
	if c == nil {
		return nil
	}
	out := &CongestionInfo{
		BufferedReceiptsBytes: c.BufferedReceiptsBytes,
		AllowedShard:          c.AllowedShard,
	}
	if c.BufferedReceiptsGas != nil {
		out.BufferedReceiptsGas = new(big.Int).Set(c.BufferedReceiptsGas)
	} else {
		out.BufferedReceiptsGas = new(big.Int)
	}
	if c.DelayedReceiptsGas != nil {
		out.DelayedReceiptsGas = new(big.Int).Set(c.DelayedReceiptsGas)
	} else {
		out.DelayedReceiptsGas = new(big.Int)
	}
	return out
}

// Equal compares all fields except AllowedShard, used by the cross-check in
// CongestionRecomputer (spec.md §4.4: "they must agree on every field except
// allowed_shard").
func (c *CongestionInfo) EqualIgnoringAllowedShard(o *CongestionInfo) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.BufferedReceiptsGas.Cmp(o.BufferedReceiptsGas) == 0 &&
		c.BufferedReceiptsBytes == o.BufferedReceiptsBytes &&
		c.DelayedReceiptsGas.Cmp(o.DelayedReceiptsGas) == 0
}

// removeBufferedReceiptGas subtracts gas from BufferedReceiptsGas, failing if
// it would go negative (mirrors nearcore's
// `remove_buffered_receipt_gas`/`remove_receipt_bytes` checked arithmetic).
func (c *CongestionInfo) removeBufferedReceiptGas(gas *big.Int) error {
	if c.BufferedReceiptsGas.Cmp(gas) < 0 {
		return fmt.Errorf("resharding: buffered receipt gas underflow: have %s, remove %s", c.BufferedReceiptsGas, gas)
	}
	c.BufferedReceiptsGas.Sub(c.BufferedReceiptsGas, gas)
	return nil
}

func (c *CongestionInfo) removeReceiptBytes(n uint64) error {
	if c.BufferedReceiptsBytes < n {
		return fmt.Errorf("resharding: buffered receipt bytes underflow: have %d, remove %d", c.BufferedReceiptsBytes, n)
	}
	c.BufferedReceiptsBytes -= n
	return nil
}

// finalizeAllowedShard deterministically rotates the admission target among
// allShards, seeded by seed (spec.md §3/§9: locked to child_shard_index).
func (c *CongestionInfo) finalizeAllowedShard(ownShard uint32, allShards []uint32, seed uint64) {
	if len(allShards) == 0 {
		c.AllowedShard = ownShard
		return
	}
	idx := int(seed % uint64(len(allShards)))
	c.AllowedShard = allShards[idx]
}

// receiptGroupEntry is one buffered outgoing receipt tracked by destination.
type receiptGroupEntry struct {
	Gas   *big.Int
	Bytes uint64
}

// ReceiptGroupsQueue is the per-destination-shard queue of buffered outgoing
// receipts maintained inside the trie at a well-known key.
type ReceiptGroupsQueue struct {
	Dest    uint32
	entries []receiptGroupEntry
}

// TotalGas sums the gas of every buffered receipt group for this destination.
func (q *ReceiptGroupsQueue) TotalGas() *big.Int {
	total := new(big.Int)
	if q == nil {
		return total
	}
	for _, e := range q.entries {
		total.Add(total, e.Gas)
	}
	return total
}

// TotalSize sums the byte size of every buffered receipt group.
func (q *ReceiptGroupsQueue) TotalSize() uint64 {
	if q == nil {
		return 0
	}
	var total uint64
	for _, e := range q.entries {
		total += e.Bytes
	}
	return total
}

func receiptGroupsQueueKey(dest uint32) []byte {
	return []byte(fmt.Sprintf("receipt-groups/%d", dest))
}

//---------------------------------------------------------------------
// ChunkExtra
//---------------------------------------------------------------------

// ChunkExtra is the per-shard, per-block header-level summary produced by the
// previous chunk's execution.
type ChunkExtra struct {
	StateRoot            Hash
	CongestionInfo       *CongestionInfo
	GasUsed              uint64
	BalanceBurnt         *big.Int
	ValidatorProposals   []byte
	OutgoingReceiptsRoot Hash
}

// Clone returns a deep copy of the ChunkExtra, the starting point for
// deriving a child's ChunkExtra (spec.md §4.5).
func (c *ChunkExtra) Clone() *ChunkExtra {
	out := &ChunkExtra{
		StateRoot:            c.StateRoot,
		GasUsed:              c.GasUsed,
		OutgoingReceiptsRoot: c.OutgoingReceiptsRoot,
	}
	if c.BalanceBurnt != nil {
		out.BalanceBurnt = new(big.Int).Set(c.BalanceBurnt)
	}
	if len(c.ValidatorProposals) > 0 {
		out.ValidatorProposals = append([]byte(nil), c.ValidatorProposals...)
	}
	out.CongestionInfo = c.CongestionInfo.Clone()
	return out
}

//---------------------------------------------------------------------
// PartialState witness / StateTransitionData
//---------------------------------------------------------------------

// PartialState is the set of trie node values touched during the split,
// sufficient to re-execute the split against the parent state root.
type PartialState struct {
	Nodes [][]byte
}

// StateTransitionData is the per-child record persisted alongside the
// ChunkExtra: the witness plus an (always empty, for this subsystem) set of
// contract accesses, matching nearcore's save_state_transition_data call
// shape (original_source/chain/chain/src/resharding/manager.rs).
type StateTransitionData struct {
	BlockHash        Hash
	ShardID          uint32
	Witness          PartialState
	ContractAccesses [][]byte
}

//---------------------------------------------------------------------
// ShardUidMapping
//---------------------------------------------------------------------

const shardUIDMappingNamespace = "shard_uid_mapping"

func shardUIDMappingKey(child ShardUID) []byte {
	return child.Bytes()
}
