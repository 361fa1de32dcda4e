package core

import (
	"math/big"
	"testing"
)

func TestChunkExtraBuilderBuildChildReplacesRootAndCongestion(t *testing.T) {
	parent := &ChunkExtra{
		StateRoot: Hash{1},
		CongestionInfo: &CongestionInfo{
			BufferedReceiptsGas:   big.NewInt(10),
			BufferedReceiptsBytes: 5,
			DelayedReceiptsGas:    big.NewInt(0),
		},
		GasUsed:              42,
		BalanceBurnt:          big.NewInt(7),
		ValidatorProposals:    []byte{9, 9},
		OutgoingReceiptsRoot: Hash{2},
	}
	newRoot := Hash{3}
	newCongestion := &CongestionInfo{BufferedReceiptsGas: big.NewInt(0), DelayedReceiptsGas: big.NewInt(0)}

	b := NewChunkExtraBuilder()
	child := b.BuildChild(parent, newRoot, newCongestion)

	if child.StateRoot != newRoot {
		t.Fatalf("child state root = %x, want %x", child.StateRoot, newRoot)
	}
	if child.CongestionInfo != newCongestion {
		t.Fatalf("child congestion info was not replaced with C4's output")
	}
	if child.GasUsed != parent.GasUsed || child.BalanceBurnt.Cmp(parent.BalanceBurnt) != 0 {
		t.Fatalf("child must inherit gas_used/balance_burnt verbatim from parent")
	}
	if child.OutgoingReceiptsRoot != parent.OutgoingReceiptsRoot {
		t.Fatalf("child must inherit outgoing_receipts_root verbatim from parent")
	}
	if parent.StateRoot != (Hash{1}) {
		t.Fatalf("BuildChild must not mutate the parent ChunkExtra")
	}
}

func TestChunkExtraBuilderBuildChildNoCongestionField(t *testing.T) {
	parent := &ChunkExtra{StateRoot: Hash{1}} // CongestionInfo nil: pre-congestion protocol version
	b := NewChunkExtraBuilder()
	child := b.BuildChild(parent, Hash{9}, &CongestionInfo{BufferedReceiptsGas: big.NewInt(5), DelayedReceiptsGas: big.NewInt(0)})
	if child.CongestionInfo != nil {
		t.Fatalf("a child derived from a parent with no congestion-info field must not gain one")
	}
}

func TestChunkExtraBuilderEncodeDecodeRoundTrip(t *testing.T) {
	extra := &ChunkExtra{
		StateRoot: Hash{5},
		CongestionInfo: &CongestionInfo{
			BufferedReceiptsGas:   big.NewInt(123),
			BufferedReceiptsBytes: 456,
			DelayedReceiptsGas:    big.NewInt(7),
			AllowedShard:          2,
		},
		GasUsed:              99,
		BalanceBurnt:          big.NewInt(1000),
		ValidatorProposals:    []byte{1, 2, 3},
		OutgoingReceiptsRoot: Hash{6},
	}
	b := NewChunkExtraBuilder()
	data, err := b.Encode(extra)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := b.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.StateRoot != extra.StateRoot || got.OutgoingReceiptsRoot != extra.OutgoingReceiptsRoot || got.GasUsed != extra.GasUsed {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if got.CongestionInfo == nil || got.CongestionInfo.BufferedReceiptsGas.Cmp(extra.CongestionInfo.BufferedReceiptsGas) != 0 {
		t.Fatalf("round trip congestion info mismatch: got %+v", got.CongestionInfo)
	}
	if got.CongestionInfo.AllowedShard != extra.CongestionInfo.AllowedShard {
		t.Fatalf("round trip allowed_shard mismatch: got %d want %d", got.CongestionInfo.AllowedShard, extra.CongestionInfo.AllowedShard)
	}
}

func TestChunkExtraBuilderEncodeDecodeRoundTripNoCongestion(t *testing.T) {
	extra := &ChunkExtra{StateRoot: Hash{1}, GasUsed: 1}
	b := NewChunkExtraBuilder()
	data, err := b.Encode(extra)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := b.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.CongestionInfo != nil {
		t.Fatalf("round trip must preserve the absence of a congestion-info field")
	}
}
