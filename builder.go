// Package triepack builds and reads static, compressed tries over
// sorted byte-string keys. A Builder consumes keys in ascending
// lexicographic order in a single streaming pass and emits a compact
// byte buffer of bit-packed node records; a Trie traverses that buffer
// in place, without deserialization. Each terminal key receives a
// positive term id in insertion order, which is the payload handed back
// during traversal and lookup.
//
// Keys must carry a trailing sentinel byte (see Key.WithSentinel) so
// that no key is a proper prefix of another. Construction memory is
// bounded by the depth of the current key, not the number of keys: an
// internal node is serialized the moment it can no longer gain
// descendants.
//
// Concurrency: a Builder is strictly sequential and not safe for
// concurrent use. A Trie is immutable and safe for any number of
// concurrent traversals.
package triepack

import (
	"math"

	"github.com/bits-and-blooms/bloom/v3"
)

// trieNode is an entry on the construction stack: the rightmost path of
// the trie built so far. term holds key[0:prefixLen] and is only
// materialized while the node is on the stack or still referenced as a
// pending child.
type trieNode struct {
	prefixLen int
	term      Key
	ptr       uint32
	termID    uint32
	terminal  bool

	freq     uint32
	untagged []uint32

	children []*trieNode
}

// Builder constructs a static trie from a sorted key stream. Create one
// with NewBuilder, feed it with Add and seal it with Finish. After any
// error the builder state is undefined and must be discarded.
type Builder struct {
	stack    []*trieNode
	out      []byte
	termID   uint32
	finished bool

	filter  *bloom.BloomFilter
	grouper *Grouper
}

// Option configures a Builder.
type Option func(*Builder)

// WithBloomFilter attaches a bloom filter sized for expectedKeys keys
// (1% false-positive rate). Every added key is recorded; the finished
// Trie uses the filter as a fast negative path in Contains and persists
// it alongside the trie bytes.
func WithBloomFilter(expectedKeys uint) Option {
	return func(b *Builder) {
		b.filter = bloom.NewWithEstimates(expectedKeys, 0.01)
	}
}

// WithGrouper attaches a frequency-bucketing Grouper that labels
// terminals with group ids as subtrees are flushed.
func WithGrouper(g *Grouper) Option {
	return func(b *Builder) {
		b.grouper = g
	}
}

// NewBuilder returns a Builder ready to accept keys.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		stack: []*trieNode{{}},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add inserts the next key and returns its term id (1 for the first
// key). key must compare strictly above the previously added key and
// neither may be a prefix of the other; freq is forwarded to the
// Grouper, if any, and otherwise ignored. The key is cloned, the caller
// may reuse its backing array.
func (b *Builder) Add(key Key, freq uint32) (uint32, error) {
	if b.finished {
		return 0, ErrFinished
	}
	if len(key) == 0 {
		return 0, ErrEmptyKey
	}
	top := b.top()
	p := key.CommonPrefixLen(top.term)
	switch {
	case p == len(key):
		// equal to, or a proper prefix of, the previous key
		return 0, ErrPrefixKey
	case p < len(top.term) && key[p] < top.term[p]:
		return 0, ErrOutOfOrder
	case top.terminal && p == len(top.term):
		return 0, ErrPrefixKey
	}
	if b.termID == math.MaxUint32 {
		return 0, ErrTooLarge
	}
	if b.filter != nil {
		b.filter.Add(key)
	}
	return b.addKey(key.Clone(), freq)
}

// Count returns the number of keys added so far.
func (b *Builder) Count() uint32 { return b.termID }

// Finish seals the trie, flushing every still-open node, and returns
// the finished Trie. With no keys added it returns an empty Trie (no
// buffer, root offset 0), which readers treat as an empty sequence.
func (b *Builder) Finish() (*Trie, error) {
	if b.finished {
		return nil, ErrFinished
	}
	b.finished = true

	// An empty key is below every real key, so adding it closes every
	// open subtree down to the root.
	if _, err := b.addKey(nil, 0); err != nil {
		return nil, err
	}
	b.pop() // the empty terminal never names a real key
	b.termID--

	root := b.pop()
	if len(root.children) == 0 {
		return &Trie{filter: b.filter}, nil
	}
	if err := b.flush(root); err != nil {
		return nil, err
	}
	if b.grouper != nil {
		b.grouper.finish(root)
	}
	return &Trie{
		data:   b.out,
		root:   root.ptr,
		count:  b.termID,
		filter: b.filter,
	}, nil
}

// addKey splits the stack at the longest common prefix with the
// previous key, flushing every subtree the new key can no longer reach,
// and pushes the new terminal.
func (b *Builder) addKey(word Key, freq uint32) (uint32, error) {
	top := b.top()
	p := word.CommonPrefixLen(top.term)

	if p < len(top.term) {
		flushed := b.pop()
		for p < b.top().prefixLen {
			parent := b.pop()
			parent.children = append(parent.children, flushed)
			if err := b.flush(parent); err != nil {
				return 0, err
			}
			flushed = parent
		}
		if p > b.top().prefixLen {
			b.push(&trieNode{prefixLen: p, term: word[:p]})
		}
		top = b.top()
		top.children = append(top.children, flushed)
	}

	b.termID++
	b.push(&trieNode{
		prefixLen: len(word),
		term:      word,
		termID:    b.termID,
		terminal:  true,
		freq:      freq,
	})
	return b.termID, nil
}

// flush serializes node's child table at the current end of the output
// buffer. Terminal nodes carry no record of their own; they exist only
// as entries in their parent's child table.
func (b *Builder) flush(node *trieNode) error {
	if node.terminal {
		return nil
	}
	if err := b.phantomize(node); err != nil {
		return err
	}
	if b.grouper != nil {
		b.grouper.observe(node)
	}
	if uint64(len(b.out)) > math.MaxUint32 {
		return ErrTooLarge
	}
	node.ptr = uint32(len(b.out))
	out, err := appendRecord(b.out, node)
	if err != nil {
		return err
	}
	b.out = out
	node.children = nil
	return nil
}

// phantomize bounds every edge label at this level to maxEdgeLen bytes
// by splicing in synthetic internal nodes. A phantom sits maxEdgeLen
// bytes below the parent with the original child as its sole child;
// flushing the phantom re-applies the same rewrite to the remainder, so
// arbitrarily long edges become chains of full-width phantoms.
func (b *Builder) phantomize(node *trieNode) error {
	for i, ch := range node.children {
		if ch.prefixLen-node.prefixLen <= maxEdgeLen {
			continue
		}
		cut := node.prefixLen + maxEdgeLen
		phantom := &trieNode{
			prefixLen: cut,
			term:      ch.term[:cut],
			children:  []*trieNode{ch},
		}
		if err := b.flush(phantom); err != nil {
			return err
		}
		node.children[i] = phantom
	}
	return nil
}

func (b *Builder) top() *trieNode {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) pop() *trieNode {
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return n
}

func (b *Builder) push(n *trieNode) {
	b.stack = append(b.stack, n)
}
