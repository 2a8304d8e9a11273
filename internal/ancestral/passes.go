package ancestral

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Interned label alphabet of one reconstruction. Bit i of a candidate set
// stands for symbols[i]; symbols are sorted so enumeration order is stable.
type alphabet[L cmp.Ordered] struct {
	symbols []L
	index   map[L]uint
}

func newAlphabet[L cmp.Ordered](pt prunedTree, labels map[string]L) *alphabet[L] {
	a := &alphabet[L]{index: make(map[L]uint)}
	for _, name := range pt.leafNames() {
		l := labels[name]
		if _, ok := a.index[l]; !ok {
			a.index[l] = 0
			a.symbols = append(a.symbols, l)
		}
	}
	slices.Sort(a.symbols)
	for i, l := range a.symbols {
		a.index[l] = uint(i)
	}
	return a
}

func (a *alphabet[L]) size() uint { return uint(len(a.symbols)) }

// Bottom-up pass. Leaves get their own label; an internal node gets the
// intersection of its children's sets when it is non-empty and their union
// otherwise.
func upPass[L cmp.Ordered](pt prunedTree, labels map[string]L, a *alphabet[L]) []*bitset.BitSet {
	sets := make([]*bitset.BitSet, len(pt))
	for i := len(pt) - 1; i >= 0; i-- { // reverse preorder visits children first
		n := pt[i]
		if n.tip() {
			sets[i] = bitset.New(a.size()).Set(a.index[labels[n.name]])
			continue
		}
		inter := sets[n.children[0]].Clone()
		union := sets[n.children[0]].Clone()
		for _, c := range n.children[1:] {
			inter.InPlaceIntersection(sets[c])
			union.InPlaceUnion(sets[c])
		}
		if inter.Any() {
			sets[i] = inter
		} else {
			sets[i] = union
		}
	}
	return sets
}

// Top-down pass. The root keeps its set; every other node narrows its set to
// the intersection with its parent's final set when that is non-empty.
func downPass(pt prunedTree, sets []*bitset.BitSet) {
	for i := 1; i < len(pt); i++ { // preorder finalizes parents first
		if inter := sets[i].Intersection(sets[pt[i].parent]); inter.Any() {
			sets[i] = inter
		}
	}
}

// Candidate label indices for each node in ascending order. Panics on an empty
// set, which well-formed input cannot produce.
func candidates(pt prunedTree, sets []*bitset.BitSet) [][]uint {
	cands := make([][]uint, len(pt))
	for i, s := range sets {
		if s.None() {
			panic(fmt.Sprintf("empty candidate label set at pruned node %d (%q)", i, pt[i].name))
		}
		cands[i] = make([]uint, 0, s.Count())
		for j, ok := s.NextSet(0); ok; j, ok = s.NextSet(j + 1) {
			cands[i] = append(cands[i], j)
		}
	}
	return cands
}
