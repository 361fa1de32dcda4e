package core

// resharding_trie.go – the authenticated Merkle trie and its account-boundary
// split algorithm (component C3, spec.md §4.3).
//
// Keys are raw account-name bytes; the trie branches one byte at a time
// (an uncompressed 256-ary trie, not a path-compressed Patricia trie — see
// DESIGN.md for why that simplification is sound for this subsystem). Nodes
// are content-addressed with sha256 and never mutated in place: every write
// allocates new node objects along the changed path and reuses pointers to
// everything else, which is what makes freezing the parent trie for the two
// child walks a simple flag flip rather than a deep copy.

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

//---------------------------------------------------------------------
// trieNode
//---------------------------------------------------------------------

type trieNode struct {
	value    []byte // non-nil if a key ends exactly at this node
	children [256]*trieNode
	hash     Hash
	dirty    bool // hash not yet recomputed
}

func (n *trieNode) clone() *trieNode {
	cp := *n
	return &cp
}

// childIndices returns the present child slot indices in ascending order.
func (n *trieNode) childIndices() []int {
	out := make([]int, 0, 4)
	for i, c := range n.children {
		if c != nil {
			out = append(out, i)
		}
	}
	return out
}

// recomputeHash content-addresses this node from its value and children's
// (already-computed) hashes. Children must have up-to-date hashes before
// this is called; computeHash below walks bottom-up to guarantee that.
func (n *trieNode) recomputeHash() {
	h := sha256.New()
	if n.value != nil {
		h.Write([]byte{1})
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(n.value)))
		h.Write(lenBuf[:])
		h.Write(n.value)
	} else {
		h.Write([]byte{0})
	}
	for _, i := range n.childIndices() {
		h.Write([]byte{byte(i)})
		h.Write(n.children[i].hash[:])
	}
	copy(n.hash[:], h.Sum(nil))
	n.dirty = false
}

// computeHash recursively recomputes hashes bottom-up for any dirty node
// reachable from n, returning n's own hash.
func computeHash(n *trieNode) Hash {
	if n == nil {
		return Hash{}
	}
	if !n.dirty {
		return n.hash
	}
	for _, i := range n.childIndices() {
		computeHash(n.children[i])
	}
	n.recomputeHash()
	return n.hash
}

// emptyTrieRoot is the canonical root hash of a trie containing no keys.
var emptyTrieRoot = computeHash(&trieNode{})

//---------------------------------------------------------------------
// TrieRecorder / PartialState witness accumulation
//---------------------------------------------------------------------

// TrieRecorder accumulates every node *value* read during a trie walk,
// producing a minimal witness sufficient to replay that walk starting only
// from the root hash. Borrowed exclusively by one child walk at a time; the
// MemTrieSplitter resets it between the left and right walks so each witness
// is independent and minimal (spec.md §9).
type TrieRecorder struct {
	mu    sync.Mutex
	seen  map[Hash]struct{}
	nodes [][]byte
}

// NewTrieRecorder returns an empty recorder.
func NewTrieRecorder() *TrieRecorder {
	return &TrieRecorder{seen: make(map[Hash]struct{})}
}

// Record appends a node's serialized value to the witness, deduplicating by
// hash so a node read twice in one walk is only recorded once.
func (r *TrieRecorder) Record(hash Hash, serialized []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[hash]; ok {
		return
	}
	r.seen[hash] = struct{}{}
	r.nodes = append(r.nodes, append([]byte(nil), serialized...))
}

// RecordedStorage returns the witness accumulated so far.
func (r *TrieRecorder) RecordedStorage() PartialState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.nodes))
	copy(out, r.nodes)
	return PartialState{Nodes: out}
}

// Reset clears the recorder for reuse by the next (right-side) walk.
func (r *TrieRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = make(map[Hash]struct{})
	r.nodes = nil
}

// serializeNode is the canonical witness encoding of a node: identical to the
// bytes hashed by recomputeHash, so a verifier can re-derive hash(serialize(n))
// without needing a separate wire format. The value is length-prefixed so
// deserializeNode can parse a node back out of the raw bytes alone; a witness
// replay (below) is the reason this needs to round-trip, not just hash.
func serializeNode(n *trieNode) []byte {
	var buf []byte
	if n.value != nil {
		buf = append(buf, 1)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(n.value)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, n.value...)
	} else {
		buf = append(buf, 0)
	}
	for _, i := range n.childIndices() {
		buf = append(buf, byte(i))
		buf = append(buf, n.children[i].hash[:]...)
	}
	return buf
}

// witnessNode is a node reconstructed from a serialized witness entry: the
// same shape as trieNode but with children addressed by hash instead of
// pointer, since a replay has no live node graph to point into.
type witnessNode struct {
	value    []byte
	children map[byte]Hash
}

// deserializeNode parses one serializeNode output back into a witnessNode.
func deserializeNode(data []byte) (*witnessNode, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty witness node", ErrTrieCorruption)
	}
	wn := &witnessNode{children: make(map[byte]Hash)}
	pos := 1
	switch data[0] {
	case 0:
	case 1:
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated witness node value length", ErrTrieCorruption)
		}
		n := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		if pos+int(n) > len(data) {
			return nil, fmt.Errorf("%w: truncated witness node value", ErrTrieCorruption)
		}
		wn.value = append([]byte(nil), data[pos:pos+int(n)]...)
		pos += int(n)
	default:
		return nil, fmt.Errorf("%w: unrecognized witness node tag %d", ErrTrieCorruption, data[0])
	}
	for pos < len(data) {
		if pos+1+32 > len(data) {
			return nil, fmt.Errorf("%w: truncated witness node child entry", ErrTrieCorruption)
		}
		idx := data[pos]
		pos++
		var h Hash
		copy(h[:], data[pos:pos+32])
		pos += 32
		wn.children[idx] = h
	}
	return wn, nil
}

// witnessNodeHash recomputes a witnessNode's content hash using the exact
// same layout as trieNode.recomputeHash, so it agrees with the live trie's
// hash for any node built from identical value/children.
func witnessNodeHash(n *witnessNode) Hash {
	h := sha256.New()
	if n.value != nil {
		h.Write([]byte{1})
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(n.value)))
		h.Write(lenBuf[:])
		h.Write(n.value)
	} else {
		h.Write([]byte{0})
	}
	idxs := make([]int, 0, len(n.children))
	for i := range n.children {
		idxs = append(idxs, int(i))
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		h.Write([]byte{byte(i)})
		ch := n.children[byte(i)]
		h.Write(ch[:])
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ReplayRetainSplitShard reconstructs the child root hash that
// retainSplitShard would have produced, using only a recorded witness
// (PartialState) and the parent state root — never the live node graph the
// original walk traversed. It re-runs the identical below/above
// classification against nodes addressed purely by hash out of the witness,
// which is what it means for a witness to be sufficient to replay C3
// (spec.md P4): if the witness were missing a node the walk actually needed,
// this returns ErrTrieCorruption instead of silently under-replaying.
func ReplayRetainSplitShard(parentRoot Hash, boundary []byte, mode RetainMode, witness PartialState) (Hash, error) {
	byHash := make(map[Hash]*witnessNode, len(witness.Nodes))
	for _, raw := range witness.Nodes {
		wn, err := deserializeNode(raw)
		if err != nil {
			return Hash{}, err
		}
		byHash[Hash(sha256.Sum256(raw))] = wn
	}

	root, ok := byHash[parentRoot]
	if !ok {
		if parentRoot == emptyTrieRoot {
			return emptyTrieRoot, nil
		}
		return Hash{}, fmt.Errorf("%w: witness missing parent root %x", ErrTrieCorruption, parentRoot)
	}

	newRoot, err := replayWalk(byHash, root, boundary, 0, classifyUndetermined, mode)
	if err != nil {
		return Hash{}, err
	}
	if newRoot == nil {
		return emptyTrieRoot, nil
	}
	return witnessNodeHash(newRoot), nil
}

// replayWalk mirrors retainWalk's classification exactly, but descends by
// looking child hashes up in byHash instead of following *trieNode pointers.
func replayWalk(byHash map[Hash]*witnessNode, n *witnessNode, boundary []byte, depth int, class sideClass, mode RetainMode) (*witnessNode, error) {
	if n == nil {
		return nil, nil
	}
	if class == classifyUndetermined {
		return replayBuildRetained(byHash, n, boundary, depth, depth == len(boundary), mode)
	}
	keep := (class == classifyBelow && mode == RetainLeft) || (class == classifyAbove && mode == RetainRight)
	if !keep {
		return nil, nil
	}
	// Entirely retained: the witness already holds this node verbatim.
	return n, nil
}

// replayBuildRetained mirrors buildRetained, rebuilding the straddling node
// from witness-sourced children and recomputing each newly-assembled child's
// hash so the parent can be hashed in turn.
func replayBuildRetained(byHash map[Hash]*witnessNode, n *witnessNode, boundary []byte, depth int, exactMatch bool, mode RetainMode) (*witnessNode, error) {
	out := &witnessNode{children: make(map[byte]Hash)}

	if n.value != nil {
		ownClass := classifyBelow
		if exactMatch {
			ownClass = classifyAbove
		}
		if (ownClass == classifyBelow && mode == RetainLeft) || (ownClass == classifyAbove && mode == RetainRight) {
			out.value = n.value
		}
	}
	var nextByte byte
	if !exactMatch {
		nextByte = boundary[depth]
	}

	idxs := make([]int, 0, len(n.children))
	for i := range n.children {
		idxs = append(idxs, int(i))
	}
	sort.Ints(idxs)

	any := out.value != nil
	for _, ii := range idxs {
		i := byte(ii)
		var childClass sideClass
		switch {
		case exactMatch:
			childClass = classifyAbove
		case i < nextByte:
			childClass = classifyBelow
		case i > nextByte:
			childClass = classifyAbove
		default:
			childClass = classifyUndetermined
		}
		childHash := n.children[i]
		child, ok := byHash[childHash]
		if !ok {
			return nil, fmt.Errorf("%w: witness missing node %x referenced at depth %d", ErrTrieCorruption, childHash, depth)
		}
		childResult, err := replayWalk(byHash, child, boundary, depth+1, childClass, mode)
		if err != nil {
			return nil, err
		}
		if childResult != nil {
			out.children[i] = witnessNodeHash(childResult)
			any = true
		}
	}

	if !any {
		return nil, nil
	}
	return out, nil
}

//---------------------------------------------------------------------
// Trie (persistent-trie view) / MemTrie (in-memory active view)
//---------------------------------------------------------------------

// Trie is a read/write handle onto a single shard's authenticated state at a
// point in time. Mutation never rewrites an existing *trieNode; Update
// allocates new nodes along the changed path only.
type Trie struct {
	root *trieNode
}

// NewTrie returns an empty trie.
func NewTrie() *Trie {
	return &Trie{root: &trieNode{}}
}

// Root returns the current root hash, computing any pending node hashes.
func (t *Trie) Root() Hash {
	return computeHash(t.root)
}

// Get looks up key, returning (value, true) if present.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	n := t.root
	for _, b := range key {
		if n == nil {
			return nil, false
		}
		n = n.children[b]
	}
	if n == nil || n.value == nil {
		return nil, false
	}
	return n.value, true
}

// Update inserts or overwrites key with value, copy-on-write along the path.
func (t *Trie) Update(key []byte, value []byte) {
	t.root = updatePath(t.root, key, value)
}

// updatePath returns a new subtree root reflecting key=value, reusing every
// untouched sibling pointer from n.
func updatePath(n *trieNode, key []byte, value []byte) *trieNode {
	var cur *trieNode
	if n == nil {
		cur = &trieNode{}
	} else {
		cur = n.clone()
	}
	cur.dirty = true
	if len(key) == 0 {
		cur.value = value
		return cur
	}
	b := key[0]
	cur.children[b] = updatePath(cur.children[b], key[1:], value)
	return cur
}

// MemTrie is the in-memory representation of a shard's active trie. It wraps
// a Trie with the freeze/retain vocabulary spec.md §4.3 requires: before a
// freeze, it is the single writable view for its shard; after freeze it is
// immutable and may be shared, by node-pointer reference, with child tries
// derived from it via retainSplitShard.
type MemTrie struct {
	mu     sync.RWMutex
	trie   *Trie
	frozen bool
}

// NewMemTrie returns an empty, unfrozen MemTrie.
func NewMemTrie() *MemTrie {
	return &MemTrie{trie: NewTrie()}
}

// Root returns the current state root.
func (m *MemTrie) Root() Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trie.Root()
}

// Update mutates the trie. Panics if called after Freeze: a frozen parent
// MemTrie must never be mutated again, only read through by child walks
// (spec.md §4.3's freeze protocol).
func (m *MemTrie) Update(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		panic("resharding: write to frozen MemTrie")
	}
	m.trie.Update(key, value)
}

// Freeze marks this MemTrie immutable. Idempotent: freezing an
// already-frozen trie is a no-op, matching the "marks the parent MemTrie
// immutable" step of freeze_mem_tries, which may observe a trie already
// frozen by a retried attempt.
func (m *MemTrie) Freeze() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen = true
}

// snapshotRoot returns the frozen root node for read-only structural sharing
// by a child walk. Must only be called after Freeze.
func (m *MemTrie) snapshotRoot() *trieNode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.frozen {
		panic("resharding: snapshotRoot called on a non-frozen MemTrie")
	}
	return m.trie.root
}

// installRoot replaces this (child) MemTrie's root wholesale, used once by
// MemTrieSplitter.ApplyMemtrieChanges to install the freshly split subtree.
func (m *MemTrie) installRoot(root *trieNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trie = &Trie{root: root}
}

//---------------------------------------------------------------------
// retain_split_shard
//---------------------------------------------------------------------

// TrieChanges is the output of a single-side retain_split_shard walk: the
// new child root plus every newly allocated node, ready to be written to
// DBCol::State under the parent's ShardUID prefix (spec.md §4.3's
// "apply_insertions" contract: no physical key rewrite for retained nodes).
type TrieChanges struct {
	NewRoot    Hash
	Insertions map[Hash][]byte // hash -> serialized node value, new nodes only
	childRoot  *trieNode
}

// retainSplitShard walks root top-down, keeping only the subtree on the
// retained side of boundary, and returns the resulting TrieChanges. Every
// node read during the walk (whether retained, discarded, or a branch
// point) is appended to recorder, producing a witness sufficient to replay
// this exact walk (spec.md P4).
//
// Algorithm (spec.md §4.3): at depth d, the accumulated path to n is
// exactly key[:d] for whatever key reaches n (this trie branches one byte
// per level, so there is no path-fragment bookkeeping to do). Classify n's
// entire subtree against boundary:
//   - if key[:d] is a strict prefix of boundary (d < len(boundary)): some
//     descendants may be below, some above, exactly the child at index
//     boundary[d] straddles; children with a lower index are entirely
//     below, children with a higher index are entirely above; n's own
//     terminal value (key[:d] itself) is below boundary (a proper prefix
//     sorts before any string it's a prefix of).
//   - if key[:d] == boundary exactly (d == len(boundary)): n's own
//     terminal value is the boundary account itself, which belongs to the
//     right child (left-open boundary, spec.md §4.3); every descendant is
//     strictly greater than boundary (any proper extension of boundary sorts
//     after it), so the whole subtree below n is "above".
//   - otherwise (d > len(boundary), or a mismatch already occurred on a
//     prior byte): n's entire subtree is uniformly below or above,
//     decided once and inherited by every recursive call below this point.
func retainSplitShard(root *trieNode, boundary []byte, mode RetainMode, recorder *TrieRecorder) (*TrieChanges, error) {
	insertions := make(map[Hash][]byte)
	newRoot, err := retainWalk(root, boundary, 0, classifyUndetermined, mode, recorder, insertions)
	if err != nil {
		return nil, err
	}
	var nr Hash
	if newRoot != nil {
		nr = computeHash(newRoot)
	} else {
		nr = emptyTrieRoot
	}
	return &TrieChanges{NewRoot: nr, Insertions: insertions, childRoot: newRoot}, nil
}

// sideClass is the outcome of comparing a node's subtree against the
// boundary account: it is either still undetermined (recursion ongoing,
// at most while depth < len(boundary)), or has collapsed to a single
// verdict that every descendant inherits without further comparison.
type sideClass int

const (
	classifyUndetermined sideClass = iota
	classifyBelow
	classifyAbove
)

func retainWalk(n *trieNode, boundary []byte, depth int, class sideClass, mode RetainMode, recorder *TrieRecorder, insertions map[Hash][]byte) (*trieNode, error) {
	if n == nil {
		return nil, nil
	}
	h := computeHash(n)
	recorder.Record(h, serializeNode(n))

	if class == classifyUndetermined {
		if depth == len(boundary) {
			// n's own key equals boundary exactly; every descendant is a
			// proper extension of boundary and therefore classifies Above
			// in its entirety. n's own terminal value is classified below.
			return buildRetained(n, boundary, depth, true, mode, recorder, insertions)
		}
		// depth < len(boundary): n's own terminal (if any) is a proper
		// prefix of boundary, hence Below; children straddle at index
		// boundary[depth].
		return buildRetained(n, boundary, depth, false, mode, recorder, insertions)
	}

	// class already resolved for this whole subtree.
	keep := (class == classifyBelow && mode == RetainLeft) || (class == classifyAbove && mode == RetainRight)
	if !keep {
		return nil, nil
	}
	// Entirely retained: reuse the node pointer verbatim (no re-hash, no
	// new allocation — spec.md §4.3 case 1, "reuse the child pointer
	// verbatim"). The witness must still contain the subtree so a verifier
	// without access to the live trie can reproduce the child root.
	recordSubtree(n, recorder)
	return n, nil
}

// recordSubtree appends every node in n's subtree to recorder. Used when a
// whole subtree is retained verbatim: the witness must still contain it so
// a verifier without access to the live trie can reproduce the child root.
func recordSubtree(n *trieNode, recorder *TrieRecorder) {
	if n == nil {
		return
	}
	recorder.Record(computeHash(n), serializeNode(n))
	for _, i := range n.childIndices() {
		recordSubtree(n.children[i], recorder)
	}
}

// buildRetained handles the still-straddling case at depth <= len(boundary):
// n's own terminal value is classified against exactMatch (depth ==
// len(boundary), own key is the boundary account itself, goes right), and
// each child is classified per-edge against boundary[depth] (only
// meaningful when !exactMatch, since depth < len(boundary) then).
func buildRetained(n *trieNode, boundary []byte, depth int, exactMatch bool, mode RetainMode, recorder *TrieRecorder, insertions map[Hash][]byte) (*trieNode, error) {
	out := &trieNode{dirty: true}

	if n.value != nil {
		ownClass := classifyBelow
		if exactMatch {
			// The key equal to boundary itself belongs to the right child
			// (left-open boundary, spec.md §4.3).
			ownClass = classifyAbove
		}
		keepOwn := (ownClass == classifyBelow && mode == RetainLeft) || (ownClass == classifyAbove && mode == RetainRight)
		if keepOwn {
			out.value = n.value
		}
	}
	var nextByte byte
	if !exactMatch {
		nextByte = boundary[depth]
	}

	any := out.value != nil
	for _, i := range n.childIndices() {
		var childClass sideClass
		switch {
		case exactMatch:
			// Every child is a proper extension of boundary: entirely Above.
			childClass = classifyAbove
		case byte(i) < nextByte:
			childClass = classifyBelow
		case byte(i) > nextByte:
			childClass = classifyAbove
		default:
			// i == nextByte: straddling child, recurse undetermined.
			childClass = classifyUndetermined
		}
		childResult, err := retainWalk(n.children[i], boundary, depth+1, childClass, mode, recorder, insertions)
		if err != nil {
			return nil, err
		}
		if childResult != nil {
			out.children[i] = childResult
			any = true
		}
	}

	if !any {
		return nil, nil
	}
	h := computeHash(out)
	insertions[h] = serializeNode(out)
	return out, nil
}

// keysUnder collects every key reachable from n, used by tests to check P1
// (split totality) and P3 (root soundness) against a from-scratch rebuild.
func keysUnder(n *trieNode, prefix []byte, out map[string][]byte) {
	if n == nil {
		return
	}
	if n.value != nil {
		out[string(prefix)] = n.value
	}
	for _, i := range n.childIndices() {
		keysUnder(n.children[i], append(append([]byte(nil), prefix...), byte(i)), out)
	}
}

// Keys returns every key/value pair stored in t, sorted by key.
func (t *Trie) Keys() []string {
	m := make(map[string][]byte)
	keysUnder(t.root, nil, m)
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
