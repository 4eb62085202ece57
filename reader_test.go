package triepack

import (
	"errors"
	"fmt"
	"testing"

	set3 "github.com/TomTonic/Set3"
	"github.com/bits-and-blooms/bitset"
)

func TestTraversalOrder(t *testing.T) {
	words := []string{"kok", "kokinko", "kokino", "kokot", "kroketa", "kuk"}
	trie := mustBuild(t, words)

	keys, ids := collect(t, trie)
	if len(keys) != len(words) {
		t.Fatalf("expected %d keys, got %d", len(words), len(keys))
	}
	for i, w := range words {
		if keys[i] != w+"\x00" {
			t.Fatalf("key %d: got %q, want %q", i, keys[i], w+"\x00")
		}
		if ids[i] != uint32(i+1) {
			t.Fatalf("id %d: got %d, want %d", i, ids[i], i+1)
		}
	}

	got := set3.Empty[uint32]()
	for _, id := range ids {
		got.Add(id)
	}
	if !got.Equals(set3.From[uint32](1, 2, 3, 4, 5, 6)) {
		t.Fatalf("traversal ids are not exactly 1..6: %v", ids)
	}
}

func TestSharedPrefixCollapses(t *testing.T) {
	// "kok" is shared by four keys: the root's only child is the "k"
	// fork, whose first child is a single "kok" internal node; that
	// node's children include the terminal sentinel edge for "kok" itself.
	words := []string{"kok", "kokinko", "kokino", "kokot", "kroketa", "kuk"}
	trie := mustBuild(t, words)

	root, err := decodeRecord(trie.Bytes(), trie.RootOffset())
	if err != nil {
		t.Fatalf("decode root: %v", err)
	}
	if root.n != 1 || root.terminal[0] || string(root.labels[0]) != "k" {
		t.Fatalf("root record: n=%d terminal=%v labels=%q", root.n, root.terminal, root.labels)
	}

	fork, err := decodeRecord(trie.Bytes(), trie.RootOffset()-root.ptrs[0])
	if err != nil {
		t.Fatalf("decode fork: %v", err)
	}
	if fork.n != 3 || string(fork.labels[0]) != "ok" {
		t.Fatalf("k-fork record: n=%d labels=%q", fork.n, fork.labels)
	}

	kok, err := decodeRecord(trie.Bytes(), trie.RootOffset()-root.ptrs[0]-fork.ptrs[0])
	if err != nil {
		t.Fatalf("decode kok node: %v", err)
	}
	if !kok.terminal[0] || kok.ptrs[0] != 1 || string(kok.labels[0]) != "\x00" {
		t.Fatalf("kok node: terminal=%v ptrs=%v labels=%q", kok.terminal, kok.ptrs, kok.labels)
	}
}

// checkRecords verifies the pointer-back and edge-length invariants for
// every reachable record and marks every terminal id in seen.
func checkRecords(t *testing.T, data []byte, off uint32, seen *bitset.BitSet) {
	t.Helper()
	rec, err := decodeRecord(data, off)
	if err != nil {
		t.Fatalf("decode at %d: %v", off, err)
	}
	for i := range rec.n {
		if len(rec.labels[i]) < 1 || len(rec.labels[i]) > maxEdgeLen {
			t.Fatalf("edge label length %d out of bounds at offset %d", len(rec.labels[i]), off)
		}
		if rec.ptrs[i] == 0 {
			t.Fatalf("zero pointer at offset %d", off)
		}
		if rec.terminal[i] {
			seen.Set(uint(rec.ptrs[i]))
			continue
		}
		if rec.ptrs[i] > off {
			t.Fatalf("backward offset %d exceeds record offset %d", rec.ptrs[i], off)
		}
		checkRecords(t, data, off-rec.ptrs[i], seen)
	}
}

func TestThreeHundredKeys(t *testing.T) {
	var words []string
	for i := range 300 {
		words = append(words, fmt.Sprintf("key%03d", i))
	}
	trie := mustBuild(t, words)

	keys, ids := collect(t, trie)
	if len(keys) != 300 {
		t.Fatalf("expected 300 keys, got %d", len(keys))
	}
	for i := range words {
		if keys[i] != words[i]+"\x00" || ids[i] != uint32(i+1) {
			t.Fatalf("entry %d: got (%q, %d)", i, keys[i], ids[i])
		}
	}

	seen := bitset.New(301)
	checkRecords(t, trie.Bytes(), trie.RootOffset(), seen)
	if seen.Count() != 300 {
		t.Fatalf("expected 300 distinct term ids, got %d", seen.Count())
	}
	for i := uint(1); i <= 300; i++ {
		if !seen.Test(i) {
			t.Fatalf("term id %d missing from buffer", i)
		}
	}
}

func TestLookup(t *testing.T) {
	words := []string{"kok", "kokinko", "kokino", "kokot", "kroketa", "kuk"}
	trie := mustBuild(t, words)

	for i, w := range words {
		id, ok, err := trie.Lookup(FromString(w).WithSentinel(Sentinel))
		if err != nil {
			t.Fatalf("Lookup(%q): %v", w, err)
		}
		if !ok || id != uint32(i+1) {
			t.Fatalf("Lookup(%q) = (%d, %v), want (%d, true)", w, id, ok, i+1)
		}
	}

	for _, w := range []string{"ko", "kokin", "kokota", "z", "kroke"} {
		if _, ok, err := trie.Lookup(FromString(w).WithSentinel(Sentinel)); err != nil || ok {
			t.Fatalf("Lookup(%q) = (_, %v, %v), want miss", w, ok, err)
		}
	}
	if _, ok, err := trie.Lookup(nil); err != nil || ok {
		t.Fatalf("Lookup(nil) should miss without error, got (%v, %v)", ok, err)
	}
}

func TestContainsWithBloom(t *testing.T) {
	words := []string{"alpha", "beta", "gamma"}
	trie := mustBuild(t, words, WithBloomFilter(16))

	for _, w := range words {
		ok, err := trie.Contains(FromString(w).WithSentinel(Sentinel))
		if err != nil || !ok {
			t.Fatalf("Contains(%q) = (%v, %v), want hit", w, ok, err)
		}
	}
	ok, err := trie.Contains(FromString("delta").WithSentinel(Sentinel))
	if err != nil || ok {
		t.Fatalf("Contains(delta) = (%v, %v), want miss", ok, err)
	}
}

func TestAllIterator(t *testing.T) {
	words := []string{"aa", "ab", "b"}
	trie := mustBuild(t, words)

	var ids []uint32
	for key, id := range trie.All() {
		if len(key) == 0 {
			t.Fatalf("iterator yielded empty key")
		}
		ids = append(ids, id)
		if id == 2 {
			break // early termination must not panic or over-yield
		}
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("iterator ids %v, want [1 2]", ids)
	}
}

func TestWalkTruncatedBuffer(t *testing.T) {
	trie := mustBuild(t, []string{"kok", "kokinko", "kokino", "kokot"})

	data := trie.Bytes()
	cut := Open(data[:len(data)-1], trie.RootOffset())
	err := cut.Walk(func(Key, uint32) bool { return true })
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestOpenEmptyBuffer(t *testing.T) {
	trie := Open(nil, 0)
	if err := trie.Walk(func(Key, uint32) bool {
		t.Fatal("walk of empty trie yielded a key")
		return false
	}); err != nil {
		t.Fatalf("Walk on empty trie: %v", err)
	}
	if _, ok, err := trie.Lookup(FromString("a").WithSentinel(Sentinel)); ok || err != nil {
		t.Fatalf("Lookup on empty trie = (%v, %v)", ok, err)
	}
}
