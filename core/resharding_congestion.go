package core

// resharding_congestion.go – component C4: rebuilds each child shard's
// congestion-control bookkeeping after a split (spec.md §4.4).
//
// Left child: inherits the parent's congestion info unchanged, since
// buffered receipts are addressed by destination shard and the left child
// keeps the full outgoing book until its first post-split chunk trims it.
//
// Right child: subtracts every destination shard's buffered receipt-group
// totals from the parent's counters, asserts the result is exactly zero
// (every buffered byte/gas must be accounted for by some ReceiptGroupsQueue),
// then independently recomputes congestion info from the child trie and
// cross-checks the two computations agree on everything but allowed_shard.

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"
)

// receiptGroupEntryRLP/receiptGroupsQueueRLP are the canonical wire
// representations of ReceiptGroupsQueue, whose entries field is otherwise
// unexported (it's never meant to be mutated outside this package).
type receiptGroupEntryRLP struct {
	Gas   *big.Int
	Bytes uint64
}

type receiptGroupsQueueRLP struct {
	Dest    uint32
	Entries []receiptGroupEntryRLP
}

func encodeReceiptGroupsQueue(q *ReceiptGroupsQueue) ([]byte, error) {
	wire := receiptGroupsQueueRLP{Dest: q.Dest}
	for _, e := range q.entries {
		wire.Entries = append(wire.Entries, receiptGroupEntryRLP{Gas: e.Gas, Bytes: e.Bytes})
	}
	return rlp.EncodeToBytes(&wire)
}

func decodeReceiptGroupsQueue(data []byte) (*ReceiptGroupsQueue, error) {
	var wire receiptGroupsQueueRLP
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, err
	}
	q := &ReceiptGroupsQueue{Dest: wire.Dest}
	for _, e := range wire.Entries {
		q.entries = append(q.entries, receiptGroupEntry{Gas: e.Gas, Bytes: e.Bytes})
	}
	return q, nil
}

// readReceiptGroupsQueue loads the ReceiptGroupsQueue for dest out of trie,
// returning an empty (zero-total) queue if none was ever written.
func readReceiptGroupsQueue(trie *Trie, dest uint32) (*ReceiptGroupsQueue, error) {
	raw, ok := trie.Get(receiptGroupsQueueKey(dest))
	if !ok {
		return &ReceiptGroupsQueue{Dest: dest}, nil
	}
	q, err := decodeReceiptGroupsQueue(raw)
	if err != nil {
		return nil, ErrTrieCorruption
	}
	return q, nil
}

// CongestionRecomputer implements C4.
type CongestionRecomputer struct {
	log *logrus.Entry
}

// NewCongestionRecomputer returns a recomputer logging under the shared
// resharding component tag.
func NewCongestionRecomputer() *CongestionRecomputer {
	return &CongestionRecomputer{log: logrus.WithField("component", "resharding")}
}

// RecomputeLeft returns the left child's congestion info: the parent's,
// unchanged.
func (c *CongestionRecomputer) RecomputeLeft(parentCongestion *CongestionInfo) *CongestionInfo {
	return parentCongestion.Clone()
}

// RecomputeRight produces the right child's congestion info. preSplitDests
// is every destination shard id present in the layout as of the block being
// split (spec.md §4.4: "for every destination shard in the pre-split
// layout"). childTrie is the already-split right child trie, used to
// independently rebuild a congestion info for the cross-check.
//
// Returns ErrCongestionInvariant if the subtraction leaves a nonzero
// buffered-gas remainder, or if the independent recomputation disagrees with
// the subtraction-based one on any field but AllowedShard. Both are
// crash-stop conditions per spec.md §7: callers must not attempt to recover
// and continue the split.
func (c *CongestionRecomputer) RecomputeRight(parentCongestion *CongestionInfo, parentTrie *Trie, childTrie *Trie, preSplitDests []uint32) (*CongestionInfo, error) {
	subtracted := parentCongestion.Clone()
	for _, dest := range preSplitDests {
		q, err := readReceiptGroupsQueue(parentTrie, dest)
		if err != nil {
			return nil, err
		}
		if err := subtracted.removeBufferedReceiptGas(q.TotalGas()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCongestionInvariant, err)
		}
		if err := subtracted.removeReceiptBytes(q.TotalSize()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCongestionInvariant, err)
		}
	}
	if subtracted.BufferedReceiptsGas.Sign() != 0 {
		return nil, fmt.Errorf("%w: buffered_receipts_gas=%s after subtracting all destination queues", ErrCongestionInvariant, subtracted.BufferedReceiptsGas)
	}

	bootstrapped, err := c.bootstrapCongestionInfo(childTrie, preSplitDests, subtracted.DelayedReceiptsGas)
	if err != nil {
		return nil, err
	}

	if !subtracted.EqualIgnoringAllowedShard(bootstrapped) {
		return nil, fmt.Errorf("%w: subtraction-based and bootstrapped congestion info disagree", ErrCongestionInvariant)
	}

	c.log.Info("resharding: right child congestion info recomputed and cross-checked")
	return bootstrapped, nil
}

// bootstrapCongestionInfo independently rebuilds a congestion info by
// rescanning childTrie's own receipt-group queues, the equivalent of
// nearcore's bootstrap_congestion_info for this subsystem's simplified
// single ReceiptGroupsQueue-per-destination model (see DESIGN.md).
func (c *CongestionRecomputer) bootstrapCongestionInfo(childTrie *Trie, dests []uint32, delayedReceiptsGas *big.Int) (*CongestionInfo, error) {
	gas := new(big.Int)
	var bytes uint64
	for _, dest := range dests {
		q, err := readReceiptGroupsQueue(childTrie, dest)
		if err != nil {
			return nil, err
		}
		gas.Add(gas, q.TotalGas())
		bytes += q.TotalSize()
	}
	return &CongestionInfo{
		BufferedReceiptsGas:   gas,
		BufferedReceiptsBytes: bytes,
		DelayedReceiptsGas:    new(big.Int).Set(delayedReceiptsGas),
	}, nil
}
