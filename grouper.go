package triepack

import "github.com/bits-and-blooms/bitset"

// Grouper labels terminal keys with frequency-bucketed group ids while
// the trie is being built. Attach one with WithGrouper.
//
// The bucketing follows the subtree structure: when a flushed child's
// accumulated frequency exceeds the threshold (total occurrences
// divided by the requested group count), a new group is opened and
// every not-yet-tagged terminal below that child joins it. Terminals
// left over at the end fall into one final group opened from the root.
// Group ids start at 1; 0 means untagged.
type Grouper struct {
	threshold uint32
	groupID   uint16
	groups    []uint16
	tagged    *bitset.BitSet
}

// NewGrouper returns a Grouper for roughly numGroups buckets over
// numTerms keys carrying numOccurrences total frequency.
func NewGrouper(numTerms, numOccurrences, numGroups int) *Grouper {
	var threshold int
	if numGroups > 0 {
		threshold = numOccurrences / numGroups
	}
	return &Grouper{
		threshold: uint32(threshold),
		groups:    make([]uint16, numTerms+1),
		tagged:    bitset.New(uint(numTerms + 1)),
	}
}

// observe is called by the builder for every node being flushed, after
// phantomization and before the record is emitted. Children heavy
// enough open their own group; the rest bubble up into the parent's
// untagged list together with their frequency mass.
func (g *Grouper) observe(node *trieNode) {
	var pending uint32
	for _, ch := range node.children {
		if ch.freq > g.threshold {
			g.createGroup(ch)
			continue
		}
		pending += ch.freq
		node.untagged = append(node.untagged, ch.untagged...)
		ch.untagged = nil
		if ch.terminal {
			node.untagged = append(node.untagged, ch.termID)
		}
	}
	node.freq += pending
}

// finish opens the final group for everything still untagged under the
// root. The builder calls it once after the root record is flushed.
func (g *Grouper) finish(root *trieNode) {
	g.createGroup(root)
}

func (g *Grouper) createGroup(node *trieNode) {
	g.groupID++
	if node.terminal {
		g.assign(node.termID)
	}
	for _, id := range node.untagged {
		g.assign(id)
	}
	node.untagged = nil
}

func (g *Grouper) assign(id uint32) {
	if int(id) >= len(g.groups) {
		grown := make([]uint16, id+1)
		copy(grown, g.groups)
		g.groups = grown
	}
	if g.tagged.Test(uint(id)) {
		return
	}
	g.groups[id] = g.groupID
	g.tagged.Set(uint(id))
}

// GroupOf returns the group id assigned to termID, or 0 when the id is
// out of range or untagged.
func (g *Grouper) GroupOf(termID uint32) uint16 {
	if int(termID) >= len(g.groups) {
		return 0
	}
	return g.groups[termID]
}

// NumGroups returns the number of groups opened so far.
func (g *Grouper) NumGroups() uint16 { return g.groupID }

// TaggedCount returns how many term ids have been assigned a group.
func (g *Grouper) TaggedCount() uint { return g.tagged.Count() }

// Groups returns a copy of the term-id→group-id map, indexed by term
// id (index 0 is unused).
func (g *Grouper) Groups() []uint16 {
	out := make([]uint16, len(g.groups))
	copy(out, g.groups)
	return out
}
