package core

// resharding_chunk_extra.go – component C5: derives a child shard's
// ChunkExtra from its parent's (spec.md §4.5). Everything except the state
// root and (protocol-version-permitting) the congestion info describes the
// parent's last executed chunk and is inherited verbatim, since the child's
// first chunk has not executed yet.

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// nonNilBigInt returns n, or a fresh zero if n is nil, since rlp refuses to
// encode a nil *big.Int.
func nonNilBigInt(n *big.Int) *big.Int {
	if n == nil {
		return big.NewInt(0)
	}
	return n
}

// ChunkExtraBuilder implements C5.
type ChunkExtraBuilder struct{}

// NewChunkExtraBuilder returns a stateless ChunkExtraBuilder.
func NewChunkExtraBuilder() *ChunkExtraBuilder { return &ChunkExtraBuilder{} }

// BuildChild derives the child's ChunkExtra. newStateRoot is the child's
// freshly split trie root. newCongestion is C4's output for this child; it is
// only spliced in when parent carried a congestion-info field to begin with
// (older protocol versions predate congestion control and never set it, so a
// child derived under them must not gain one).
func (b *ChunkExtraBuilder) BuildChild(parent *ChunkExtra, newStateRoot Hash, newCongestion *CongestionInfo) *ChunkExtra {
	out := parent.Clone()
	out.StateRoot = newStateRoot
	if parent.CongestionInfo != nil {
		out.CongestionInfo = newCongestion
	}
	return out
}

// chunkExtraRLP mirrors ChunkExtra for canonical encoding; CongestionInfo is
// flattened so a nil pointer round-trips as a zeroed, explicitly-absent record
// rather than relying on rlp's pointer-to-struct nil handling.
type chunkExtraRLP struct {
	StateRoot            Hash
	HasCongestionInfo    bool
	BufferedReceiptsGas  *big.Int
	BufferedReceiptsBytes uint64
	DelayedReceiptsGas   *big.Int
	AllowedShard         uint32
	GasUsed              uint64
	BalanceBurnt         *big.Int
	ValidatorProposals   []byte
	OutgoingReceiptsRoot Hash
}

// Encode canonically encodes extra for the write batch, using the same rlp
// codec core/ledger.go already depends on.
func (b *ChunkExtraBuilder) Encode(extra *ChunkExtra) ([]byte, error) {
	wire := chunkExtraRLP{
		StateRoot:            extra.StateRoot,
		GasUsed:              extra.GasUsed,
		BalanceBurnt:         nonNilBigInt(extra.BalanceBurnt),
		ValidatorProposals:   extra.ValidatorProposals,
		OutgoingReceiptsRoot: extra.OutgoingReceiptsRoot,
		BufferedReceiptsGas:  big.NewInt(0),
		DelayedReceiptsGas:   big.NewInt(0),
	}
	if extra.CongestionInfo != nil {
		wire.HasCongestionInfo = true
		wire.BufferedReceiptsGas = nonNilBigInt(extra.CongestionInfo.BufferedReceiptsGas)
		wire.BufferedReceiptsBytes = extra.CongestionInfo.BufferedReceiptsBytes
		wire.DelayedReceiptsGas = nonNilBigInt(extra.CongestionInfo.DelayedReceiptsGas)
		wire.AllowedShard = extra.CongestionInfo.AllowedShard
	}
	data, err := rlp.EncodeToBytes(&wire)
	if err != nil {
		return nil, fmt.Errorf("resharding: encode chunk extra: %w", err)
	}
	return data, nil
}

// Decode reverses Encode.
func (b *ChunkExtraBuilder) Decode(data []byte) (*ChunkExtra, error) {
	var wire chunkExtraRLP
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, fmt.Errorf("resharding: decode chunk extra: %w", err)
	}
	extra := &ChunkExtra{
		StateRoot:            wire.StateRoot,
		GasUsed:              wire.GasUsed,
		BalanceBurnt:         wire.BalanceBurnt,
		ValidatorProposals:   wire.ValidatorProposals,
		OutgoingReceiptsRoot: wire.OutgoingReceiptsRoot,
	}
	if wire.HasCongestionInfo {
		extra.CongestionInfo = &CongestionInfo{
			BufferedReceiptsGas:   wire.BufferedReceiptsGas,
			BufferedReceiptsBytes: wire.BufferedReceiptsBytes,
			DelayedReceiptsGas:    wire.DelayedReceiptsGas,
			AllowedShard:          wire.AllowedShard,
		}
	}
	return extra, nil
}
