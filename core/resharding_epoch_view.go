package core

// resharding_epoch_view.go – component C1: read-only epoch/shard-layout
// schedule access (spec.md §4.1). All calls are idempotent pure functions of
// committed blockchain state; this subsystem never mutates epoch state.

import "fmt"

// ProtocolVersion identifies a protocol version in effect during an epoch.
type ProtocolVersion uint32

// EpochID identifies an epoch, a fixed-length run of blocks sharing a
// validator set and shard layout.
type EpochID Hash

// EpochView is the read-only capability set the resharding core needs from
// epoch/validator bookkeeping. The host node's epoch manager implements this;
// the resharding core never constructs epochs itself.
type EpochView interface {
	// ShardLayout returns the shard layout in effect for epochID.
	ShardLayout(epochID EpochID) (ShardLayout, error)
	// NextEpochID returns the epoch that starts immediately after block.
	NextEpochID(block Hash) (EpochID, error)
	// NextEpochIDFromPrevBlock returns the epoch that starts after prevHash,
	// used to compare the current block's layout against what comes next.
	NextEpochIDFromPrevBlock(prevHash Hash) (EpochID, error)
	// IsNextBlockEpochStart reports whether the block immediately following
	// blockHash begins a new epoch.
	IsNextBlockEpochStart(blockHash Hash) (bool, error)
	// EpochProtocolVersion returns the protocol version in effect during epochID.
	EpochProtocolVersion(epochID EpochID) (ProtocolVersion, error)
}

// StaticEpochView is a fixed-table EpochView, useful for tests and for hosts
// whose epoch schedule is computed ahead of time rather than derived
// on-the-fly.
type StaticEpochView struct {
	Layouts              map[EpochID]ShardLayout
	NextEpoch            map[Hash]EpochID
	NextEpochFromPrev     map[Hash]EpochID
	EpochStartBlocks      map[Hash]bool
	ProtocolVersions      map[EpochID]ProtocolVersion
}

var _ EpochView = (*StaticEpochView)(nil)

func (v *StaticEpochView) ShardLayout(epochID EpochID) (ShardLayout, error) {
	l, ok := v.Layouts[epochID]
	if !ok {
		return ShardLayout{}, fmt.Errorf("resharding: no shard layout recorded for epoch %x", epochID)
	}
	return l, nil
}

func (v *StaticEpochView) NextEpochID(block Hash) (EpochID, error) {
	e, ok := v.NextEpoch[block]
	if !ok {
		return EpochID{}, fmt.Errorf("resharding: no next epoch recorded for block %x", block)
	}
	return e, nil
}

func (v *StaticEpochView) NextEpochIDFromPrevBlock(prevHash Hash) (EpochID, error) {
	e, ok := v.NextEpochFromPrev[prevHash]
	if !ok {
		return EpochID{}, fmt.Errorf("resharding: no next epoch (from prev) recorded for block %x", prevHash)
	}
	return e, nil
}

func (v *StaticEpochView) IsNextBlockEpochStart(blockHash Hash) (bool, error) {
	return v.EpochStartBlocks[blockHash], nil
}

func (v *StaticEpochView) EpochProtocolVersion(epochID EpochID) (ProtocolVersion, error) {
	pv, ok := v.ProtocolVersions[epochID]
	if !ok {
		return 0, fmt.Errorf("resharding: no protocol version recorded for epoch %x", epochID)
	}
	return pv, nil
}
