package ancestral

import (
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

// Node of a pruned tree; children are indices into the owning prunedTree
type prunedNode struct {
	name     string
	length   float64
	parent   int // -1 for the root
	children []int
}

// Pruned copy of a species tree stored in preorder, index 0 is the root. It
// is built fresh for every reconstruction, so nothing in it is shared.
type prunedTree []prunedNode

// intermediate form used while pruning
type clade struct {
	name     string
	length   float64
	children []*clade
}

// Drops the leaves missing from labels, removes internal nodes left without
// labeled descendants, and collapses unary internal nodes into their only
// child (adding branch lengths). Returns nil when nothing survives.
func prune[L any](root *gr.SpeciesNode, labels map[string]L) prunedTree {
	c := pruneClade(root, labels)
	if c == nil {
		return nil
	}
	pt := make(prunedTree, 0)
	pt.flatten(c, -1)
	return pt
}

func pruneClade[L any](n *gr.SpeciesNode, labels map[string]L) *clade {
	if n.Tip() {
		if _, ok := labels[n.Name()]; ok {
			return &clade{name: n.Name(), length: n.Length()}
		}
		return nil
	}
	kept := make([]*clade, 0, len(n.Children()))
	for _, child := range n.Children() {
		if c := pruneClade(child, labels); c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		kept[0].length += n.Length()
		return kept[0]
	default:
		return &clade{length: n.Length(), children: kept}
	}
}

func (pt *prunedTree) flatten(c *clade, parent int) int {
	id := len(*pt)
	*pt = append(*pt, prunedNode{name: c.name, length: c.length, parent: parent})
	for _, child := range c.children {
		childID := pt.flatten(child, id)
		(*pt)[id].children = append((*pt)[id].children, childID)
	}
	return id
}

func (n prunedNode) tip() bool { return len(n.children) == 0 }

// Leaf names left in the pruned tree, in preorder
func (pt prunedTree) leafNames() []string {
	names := make([]string, 0)
	for _, n := range pt {
		if n.tip() {
			names = append(names, n.name)
		}
	}
	return names
}
