// Package containing the graph-like data structures used by phyloadj: the
// species tree, the breakpoint graph and its connected components, and the
// connections chosen between extremities.
package graphs

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnnamedLeaf    = errors.New("unnamed leaf")
	ErrMulTree        = errors.New("contains duplicate labels")
	ErrNegativeLength = errors.New("negative branch length")
	ErrNilChild       = errors.New("nil child")
	ErrEmptyTree      = errors.New("empty species tree")
)

// Node of an immutable rooted species tree. Leaves carry a genome name,
// internal nodes carry none.
type SpeciesNode struct {
	name     string
	length   float64        // length of the branch above this node
	children []*SpeciesNode // empty iff leaf
}

// Makes a species tree node. Pass no children for a leaf.
func NewSpeciesNode(name string, length float64, children ...*SpeciesNode) *SpeciesNode {
	return &SpeciesNode{name: name, length: length, children: children}
}

func (n *SpeciesNode) Name() string { return n.name }

func (n *SpeciesNode) Length() float64 { return n.length }

// Children of the node. The returned slice must not be modified.
func (n *SpeciesNode) Children() []*SpeciesNode { return n.children }

func (n *SpeciesNode) Tip() bool { return len(n.children) == 0 }

// Rooted species tree with branch lengths, read-only once built and safe to
// share between goroutines.
type SpeciesTree struct {
	root   *SpeciesNode
	leaves map[string]*SpeciesNode
	nNodes int
}

// Validates the tree rooted at root and wraps a copy of it. Leaves must be
// uniquely named, branch lengths must be non-negative, and internal names are
// dropped from the copy. root itself is left untouched.
func NewSpeciesTree(root *SpeciesNode) (*SpeciesTree, error) {
	if root == nil {
		return nil, ErrEmptyTree
	}
	st := &SpeciesTree{leaves: make(map[string]*SpeciesNode)}
	r, err := st.build(root)
	if err != nil {
		return nil, err
	}
	st.root = r
	return st, nil
}

func (st *SpeciesTree) build(n *SpeciesNode) (*SpeciesNode, error) {
	st.nNodes++
	if n.length < 0 {
		return nil, fmt.Errorf("%w (%g) above %s", ErrNegativeLength, n.length, describe(n))
	}
	if n.Tip() {
		if n.name == "" {
			return nil, ErrUnnamedLeaf
		}
		if _, ok := st.leaves[n.name]; ok {
			return nil, fmt.Errorf("species tree %w, leaf %s appears twice", ErrMulTree, n.name)
		}
		leaf := &SpeciesNode{name: n.name, length: n.length}
		st.leaves[n.name] = leaf
		return leaf, nil
	}
	cp := &SpeciesNode{length: n.length, children: make([]*SpeciesNode, len(n.children))}
	for i, c := range n.children {
		if c == nil {
			return nil, fmt.Errorf("%w below an internal node", ErrNilChild)
		}
		child, err := st.build(c)
		if err != nil {
			return nil, err
		}
		cp.children[i] = child
	}
	return cp, nil
}

func describe(n *SpeciesNode) string {
	if n.Tip() {
		return "leaf " + n.name
	}
	return "an internal node"
}

func (st *SpeciesTree) Root() *SpeciesNode { return st.root }

func (st *SpeciesTree) NumNodes() int { return st.nNodes }

func (st *SpeciesTree) HasLeaf(name string) bool {
	_, ok := st.leaves[name]
	return ok
}

// Sorted leaf names
func (st *SpeciesTree) LeafNames() []string {
	names := make([]string, 0, len(st.leaves))
	for name := range st.leaves {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Newick string of the tree (branch lengths included)
func (st *SpeciesTree) Newick() string {
	return st.root.Newick() + ";"
}

// Newick string for the subtree below n, without the trailing semicolon
func (n *SpeciesNode) Newick() string {
	var b strings.Builder
	writeNewick(&b, n)
	return b.String()
}

func writeNewick(b *strings.Builder, n *SpeciesNode) {
	if !n.Tip() {
		b.WriteByte('(')
		for i, c := range n.children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewick(b, c)
			b.WriteByte(':')
			b.WriteString(strconv.FormatFloat(c.length, 'g', -1, 64))
		}
		b.WriteByte(')')
	}
	b.WriteString(n.name)
}
