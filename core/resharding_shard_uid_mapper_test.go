package core

import "testing"

func TestShardUidMapperSetAndLookup(t *testing.T) {
	state, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	mapper := NewShardUidMapper(state)

	parent := ShardUID{Version: 1, ID: 0}
	left := ShardUID{Version: 2, ID: 1}
	right := ShardUID{Version: 2, ID: 2}

	// ShardUidMapper has no write side of its own (see resharding_manager.go's
	// WriteBatch.SaveShardUidMapping): stage mappings the same way a
	// committed batch would, directly through the namespaced KV store.
	for _, m := range []struct{ child, parent ShardUID }{{left, parent}, {right, parent}} {
		if err := state.Set([]byte(shardUIDMappingNamespace), shardUIDMappingKey(m.child), m.parent.Bytes()); err != nil {
			t.Fatalf("stage mapping for %s: %v", m.child, err)
		}
	}

	for _, child := range []ShardUID{left, right} {
		got, ok, err := mapper.ParentOf(child)
		if err != nil {
			t.Fatalf("ParentOf(%s): %v", child, err)
		}
		if !ok {
			t.Fatalf("ParentOf(%s): expected a mapping", child)
		}
		if got != parent {
			t.Fatalf("ParentOf(%s) = %s, want %s", child, got, parent)
		}
	}
}

func TestShardUidMapperNoMapping(t *testing.T) {
	state, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	mapper := NewShardUidMapper(state)

	_, ok, err := mapper.ParentOf(ShardUID{Version: 9, ID: 9})
	if err != nil {
		t.Fatalf("ParentOf: %v", err)
	}
	if ok {
		t.Fatalf("expected no mapping for an unsplit shard")
	}
}
