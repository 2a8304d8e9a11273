package ancestral

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

type LabeledNode[L cmp.Ordered] struct {
	Name     string  // genome name (leaves only)
	Length   float64 // length of the branch above the node
	Label    L
	Children []int // indices into LabeledTree.Nodes
}

// Pruned species tree with one concrete label per node, nodes in preorder
type LabeledTree[L cmp.Ordered] struct {
	Nodes []LabeledNode[L]
}

func newLabeledTree[L cmp.Ordered](pt prunedTree, assignment []uint, a *alphabet[L]) *LabeledTree[L] {
	nodes := make([]LabeledNode[L], len(pt))
	for i, n := range pt {
		nodes[i] = LabeledNode[L]{
			Name:     n.name,
			Length:   n.length,
			Label:    a.symbols[assignment[i]],
			Children: n.children,
		}
	}
	return &LabeledTree[L]{Nodes: nodes}
}

// Number of branches whose endpoint labels differ
func (lt *LabeledTree[L]) Breaks() int {
	breaks := 0
	for _, n := range lt.Nodes {
		for _, c := range n.Children {
			if lt.Nodes[c].Label != n.Label {
				breaks++
			}
		}
	}
	return breaks
}

// Newick form with labels as bracketed comments, e.g. ((A[1]:0.1,B[2]:0.1)[1]:0.1)[1];
func (lt *LabeledTree[L]) Newick() string {
	var b strings.Builder
	if len(lt.Nodes) > 0 {
		lt.writeNewick(&b, 0)
	}
	b.WriteByte(';')
	return b.String()
}

func (lt *LabeledTree[L]) writeNewick(b *strings.Builder, i int) {
	n := lt.Nodes[i]
	if len(n.Children) > 0 {
		b.WriteByte('(')
		for j, c := range n.Children {
			if j > 0 {
				b.WriteByte(',')
			}
			lt.writeNewick(b, c)
			b.WriteByte(':')
			b.WriteString(strconv.FormatFloat(lt.Nodes[c].Length, 'g', -1, 64))
		}
		b.WriteByte(')')
	}
	fmt.Fprintf(b, "%s[%v]", n.Name, n.Label)
}
