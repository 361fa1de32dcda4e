package core

// resharding_shard_uid_mapper.go – component C2: resolves the child-to-parent
// ShardUID mapping the flat storage layer uses to find physical keys that
// still live under the parent's column range after a split (spec.md §4.2).
// The mapping is written under the shard_uid_mapping namespace by the same
// WriteBatch that carries every other write the split produces
// (WriteBatch.SaveShardUidMapping, staged in ReshardingManager.runSplit
// before Commit) — this type never writes it directly, only reads it back
// through the shared StateRW once a batch has committed.

import "fmt"

// ShardUidMapper records which parent shard a child shard's un-migrated
// physical keys should still be read from. It never deletes a mapping: once
// written, a child keeps its parent pointer until the flat storage resharder
// (C6) finishes migrating and the mapping becomes irrelevant (never proven
// stale by this component).
type ShardUidMapper struct {
	state StateRW
}

// NewShardUidMapper wraps the ledger's namespaced KV store.
func NewShardUidMapper(state StateRW) *ShardUidMapper {
	return &ShardUidMapper{state: state}
}

// ParentOf looks up the mapping written for child, returning ok=false if the
// child has no recorded parent (it was never split off, or is itself a root
// shard from genesis). StateRW.Get's existing contract returns an error for a
// missing key rather than (nil, nil) (see its memState implementation), so
// any Get failure here is treated as "no mapping", not propagated as an I/O
// error: there is no way to distinguish the two through this interface.
func (m *ShardUidMapper) ParentOf(child ShardUID) (parent ShardUID, ok bool, err error) {
	raw, getErr := m.state.Get([]byte(shardUIDMappingNamespace), shardUIDMappingKey(child))
	if getErr != nil || len(raw) == 0 {
		return ShardUID{}, false, nil
	}
	parent, err = ShardUIDFromBytes(raw)
	if err != nil {
		return ShardUID{}, false, fmt.Errorf("resharding: decode shard uid mapping for %s: %w", child, err)
	}
	return parent, true, nil
}
