// Package used for reading and validating the inputs of phyloadj: the species
// tree, the breakpoint graph, and writing the chosen adjacencies.
package prep

import (
	"errors"
	"fmt"

	"github.com/evolbioinfo/gotree/tree"

	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

var ErrMissingLength = errors.New("missing branch length")

// Converts a parsed gotree tree into an immutable species tree. The root
// branch may lack a length (treated as 0); every other branch must have one.
func ConvertSpeciesTree(tre *tree.Tree) (*gr.SpeciesTree, error) {
	if tre == nil || tre.Root() == nil {
		return nil, fmt.Errorf("%w, species tree", gr.ErrEmptyTree)
	}
	root, err := convertNode(tre.Root(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidFormat, err)
	}
	st, err := gr.NewSpeciesTree(root)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidFormat, err)
	}
	return st, nil
}

func convertNode(cur, prev *tree.Node, e *tree.Edge) (*gr.SpeciesNode, error) {
	length := 0.0
	if e != nil {
		if e.Length() == tree.NIL_LENGTH {
			return nil, fmt.Errorf("%w above node %q", ErrMissingLength, cur.Name())
		}
		length = e.Length()
	}
	children := make([]*gr.SpeciesNode, 0, len(cur.Neigh()))
	edges := cur.Edges()
	for i, n := range cur.Neigh() {
		if n == prev {
			continue
		}
		child, err := convertNode(n, cur, edges[i])
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return gr.NewSpeciesNode(cur.Name(), length), nil
	}
	return gr.NewSpeciesNode("", length, children...), nil
}

// Returns the genomes observed in the breakpoint graph components that are
// not leaves of the species tree. Their adjacencies still count as graph
// edges, but they are pruned away during reconstruction.
func UnknownGenomes(st *gr.SpeciesTree, comps []*gr.Component) []string {
	seen := make(map[string]bool)
	unknown := make([]string, 0)
	for _, c := range comps {
		for _, g := range c.Genomes() {
			if !seen[g] && !st.HasLeaf(g) {
				unknown = append(unknown, g)
			}
			seen[g] = true
		}
	}
	return unknown
}
