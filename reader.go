package triepack

import (
	"bytes"
	"iter"

	"github.com/bits-and-blooms/bloom/v3"
)

// Trie is a finished, immutable trie: a byte buffer of node records
// plus the offset of the root record. All methods are safe for
// concurrent use.
type Trie struct {
	data   []byte
	root   uint32
	count  uint32
	filter *bloom.BloomFilter
}

// Open wraps an existing buffer and root offset, as produced by
// Builder.Finish or persisted with WriteTo. The buffer is used in
// place and must not be modified afterwards. An empty buffer is a
// valid, empty trie.
func Open(data []byte, root uint32) *Trie {
	return &Trie{data: data, root: root}
}

// Bytes returns the underlying record buffer. It is not a copy; the
// caller must not modify it.
func (t *Trie) Bytes() []byte { return t.data }

// RootOffset returns the byte offset of the root record, 0 for an
// empty trie.
func (t *Trie) RootOffset() uint32 { return t.root }

// Count returns the number of terminal keys, when known. Tries opened
// with Open report 0; tries from Builder.Finish or Load report the real
// count.
func (t *Trie) Count() uint32 { return t.count }

// Walk visits every (key, term id) pair in ascending key order and
// stops early when visit returns false. Keys passed to visit are
// freshly allocated and may be retained. Walk returns a decode error
// (ErrTruncated, ErrZeroPointer) when the buffer is malformed.
func (t *Trie) Walk(visit func(key Key, id uint32) bool) error {
	if len(t.data) == 0 {
		return nil
	}
	_, err := t.walk(t.root, nil, visit)
	return err
}

func (t *Trie) walk(off uint32, prefix []byte, visit func(Key, uint32) bool) (bool, error) {
	rec, err := decodeRecord(t.data, off)
	if err != nil {
		return false, err
	}
	for i := range rec.n {
		label := rec.labels[i]
		full := make([]byte, len(prefix)+len(label))
		copy(full, prefix)
		copy(full[len(prefix):], label)

		if rec.terminal[i] {
			if !visit(Key(full), rec.ptrs[i]) {
				return false, nil
			}
			continue
		}
		cont, err := t.walk(off-rec.ptrs[i], full, visit)
		if err != nil || !cont {
			return cont, err
		}
	}
	return true, nil
}

// All returns an iterator over every (key, term id) pair in ascending
// key order. Iteration over a malformed buffer ends at the first bad
// record; use Walk to observe the error.
func (t *Trie) All() iter.Seq2[Key, uint32] {
	return func(yield func(Key, uint32) bool) {
		_ = t.Walk(yield)
	}
}

// Lookup returns the term id stored for key (including its sentinel
// byte). ok is false when the key is absent; err reports a malformed
// buffer.
func (t *Trie) Lookup(key Key) (id uint32, ok bool, err error) {
	if len(t.data) == 0 || len(key) == 0 {
		return 0, false, nil
	}
	off := t.root
	pos := 0
	for {
		rec, err := decodeRecord(t.data, off)
		if err != nil {
			return 0, false, err
		}
		descended := false
		for i := range rec.n {
			label := rec.labels[i]
			rest := key[pos:]
			if len(label) > len(rest) || label[0] != rest[0] {
				continue
			}
			if !bytes.Equal(label, []byte(rest[:len(label)])) {
				continue
			}
			if rec.terminal[i] {
				if len(label) == len(rest) {
					return rec.ptrs[i], true, nil
				}
				continue
			}
			off -= rec.ptrs[i]
			pos += len(label)
			descended = true
			break
		}
		if !descended {
			return 0, false, nil
		}
	}
}

// Contains reports whether key is present. When the trie carries a
// bloom filter, a negative filter probe answers without touching the
// record buffer.
func (t *Trie) Contains(key Key) (bool, error) {
	if t.filter != nil && !t.filter.Test(key) {
		return false, nil
	}
	_, ok, err := t.Lookup(key)
	return ok, err
}
