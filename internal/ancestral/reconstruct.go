// Package implementing maximum-likelihood ancestral reconstruction of leaf
// labels over a species tree. A reconstruction prunes the tree to the labeled
// leaves, narrows every node to a set of candidate labels with an up-pass and
// a down-pass, and then scores every fully resolved labeling.
//
// All working state lives in the call, so one Reconstructor can serve many
// goroutines at once.
package ancestral

import (
	"cmp"
	"errors"
	"iter"
	"math"

	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

const (
	Mu      = 1.0  // substitution rate
	Epsilon = 1e-7 // floor on branch lengths
)

var ErrEmptyPrunedTree = errors.New("no labeled leaves left after pruning")

// Cost of going from label v1 to v2 along a branch of the given length
func SubstitutionCost[L comparable](v1, v2 L, length float64) float64 {
	if v1 == v2 {
		return 0
	}
	return 1 - math.Exp(-Mu*max(length, Epsilon))
}

type Result[L cmp.Ordered] struct {
	Score     float64         // summed substitution cost of the chosen labeling
	Breaks    int             // branches whose endpoint labels differ
	Labelings uint64          // fully resolved labelings enumerated
	Tree      *LabeledTree[L] // the chosen labeling (diagnostics only)
}

type Reconstructor[L cmp.Ordered] struct {
	tree *gr.SpeciesTree
}

func NewReconstructor[L cmp.Ordered](st *gr.SpeciesTree) *Reconstructor[L] {
	return &Reconstructor[L]{tree: st}
}

// Reconstructs ancestral labels for the leaf labeling and returns the fully
// resolved labeling with the largest total substitution cost (first one
// enumerated wins ties). Leaves without a label are pruned away, and keys
// naming no leaf are ignored. Returns ErrEmptyPrunedTree when no labeled leaf
// is left.
func (r *Reconstructor[L]) Estimate(labels map[string]L) (*Result[L], error) {
	pt := prune(r.tree.Root(), labels)
	if pt == nil {
		return nil, ErrEmptyPrunedTree
	}
	a := newAlphabet(pt, labels)
	sets := upPass(pt, labels, a)
	downPass(pt, sets)
	cands := candidates(pt, sets)

	best := make([]uint, len(pt))
	bestScore, bestBreaks := math.Inf(-1), 0
	for assignment := range labelings(cands) {
		score, breaks := scoreLabeling(pt, assignment)
		if score > bestScore {
			bestScore, bestBreaks = score, breaks
			copy(best, assignment)
		}
	}
	return &Result[L]{
		Score:     bestScore,
		Breaks:    bestBreaks,
		Labelings: countLabelings(cands),
		Tree:      newLabeledTree(pt, best, a),
	}, nil
}

// Sum of substitution costs and number of breaks over every branch of the
// pruned tree. assignment holds a label index for each node. Branches are
// summed in preorder, so two labelings whose costs only differ in summation
// order can compare unequal in the last bit.
func scoreLabeling(pt prunedTree, assignment []uint) (float64, int) {
	score, breaks := 0.0, 0
	for i := 1; i < len(pt); i++ {
		parent := assignment[pt[i].parent]
		score += SubstitutionCost(parent, assignment[i], pt[i].length)
		if parent != assignment[i] {
			breaks++
		}
	}
	return score, breaks
}

// Lazily yields every labeling drawing node i's label from cands[i], in
// lexicographic order over the preorder (root most significant). The yielded
// slice is reused between iterations.
func labelings(cands [][]uint) iter.Seq[[]uint] {
	return func(yield func([]uint) bool) {
		n := len(cands)
		digits := make([]int, n)
		assignment := make([]uint, n)
		for i := range n {
			assignment[i] = cands[i][0]
		}
		for {
			if !yield(assignment) {
				return
			}
			i := n - 1
			for ; i >= 0; i-- {
				digits[i]++
				if digits[i] < len(cands[i]) {
					assignment[i] = cands[i][digits[i]]
					break
				}
				digits[i] = 0
				assignment[i] = cands[i][0]
			}
			if i < 0 {
				return
			}
		}
	}
}

// Number of fully resolved labelings a set of candidates expands to
func countLabelings(cands [][]uint) uint64 {
	total := uint64(1)
	for _, c := range cands {
		total *= uint64(len(c))
	}
	return total
}
