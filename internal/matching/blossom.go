// Package computing maximum weight matchings in general undirected graphs with
// Edmonds' blossom algorithm and a primal-dual update of vertex and blossom
// variables, O(n^3) overall.
//
// Vertices are 0..n-1. Edge endpoints are numbered p = 2k (the first vertex of
// edge k) and p = 2k+1 (the second), so p^1 is the opposite endpoint and p/2
// the edge. Blossoms are numbered n..2n-1.
package matching

import (
	"fmt"
	"slices"
)

type Edge struct {
	U, V int
	W    float64
}

// Returns mate[v], the vertex matched to v or -1. With maxCardinality the
// matching has maximum cardinality and the largest weight among those;
// otherwise it has the largest weight of any matching. Parallel edges and
// self loops are not allowed.
func MaxWeightMatching(n int, edges []Edge, maxCardinality bool) []int {
	mate := make([]int, n)
	for i := range mate {
		mate[i] = -1
	}
	if len(edges) == 0 || n == 0 {
		return mate
	}
	for _, e := range edges {
		if e.U == e.V || e.U < 0 || e.V < 0 || e.U >= n || e.V >= n {
			panic(fmt.Sprintf("invalid matching edge (%d, %d) for %d vertices", e.U, e.V, n))
		}
	}
	s := newSolver(n, edges, maxCardinality)
	s.solve()
	for v := range n {
		if s.mate[v] >= 0 {
			mate[v] = s.endpoint[s.mate[v]]
		}
	}
	return mate
}

type solver struct {
	n              int
	edges          []Edge
	maxCardinality bool

	endpoint  []int   // endpoint[p] is the vertex at endpoint p
	neighbend [][]int // remote endpoints of the edges incident to each vertex
	mate      []int   // remote endpoint of the matched edge, or -1

	label    []int // 0 free, 1 S, 2 T (5 marks a breadcrumb in scanBlossom)
	labelend []int // endpoint through which the label was assigned, or -1

	inblossom        []int   // top-level blossom of each vertex
	blossomparent    []int   // immediate parent blossom, or -1
	blossomchilds    [][]int // ordered sub-blossoms starting at the base
	blossombase      []int   // base vertex, -1 for an unused blossom number
	blossomendps     [][]int // endpoints connecting consecutive sub-blossoms
	bestedge         []int   // least-slack edge to a different S-blossom, or -1
	blossombestedges [][]int // least-slack edges to neighbouring S-blossoms, nil if unknown
	unusedblossoms   []int

	dualvar   []float64
	allowedge []bool // edge has zero slack
	queue     []int  // S-vertices waiting to be scanned
}

func newSolver(n int, edges []Edge, maxCardinality bool) *solver {
	maxWeight := 0.0
	for _, e := range edges {
		maxWeight = max(maxWeight, e.W)
	}
	s := &solver{
		n:                n,
		edges:            edges,
		maxCardinality:   maxCardinality,
		endpoint:         make([]int, 2*len(edges)),
		neighbend:        make([][]int, n),
		mate:             filled(n, -1),
		label:            make([]int, 2*n),
		labelend:         filled(2*n, -1),
		inblossom:        make([]int, n),
		blossomparent:    filled(2*n, -1),
		blossomchilds:    make([][]int, 2*n),
		blossombase:      filled(2*n, -1),
		blossomendps:     make([][]int, 2*n),
		bestedge:         filled(2*n, -1),
		blossombestedges: make([][]int, 2*n),
		unusedblossoms:   make([]int, 0, n),
		dualvar:          make([]float64, 2*n),
		allowedge:        make([]bool, len(edges)),
	}
	for k, e := range edges {
		s.endpoint[2*k], s.endpoint[2*k+1] = e.U, e.V
		s.neighbend[e.U] = append(s.neighbend[e.U], 2*k+1)
		s.neighbend[e.V] = append(s.neighbend[e.V], 2*k)
	}
	for v := range n {
		s.inblossom[v] = v
		s.blossombase[v] = v
		s.dualvar[v] = maxWeight
	}
	for b := n; b < 2*n; b++ {
		s.unusedblossoms = append(s.unusedblossoms, b)
	}
	return s
}

func filled(n, v int) []int {
	xs := make([]int, n)
	for i := range xs {
		xs[i] = v
	}
	return xs
}

// Python style index into a cyclic list
func at(xs []int, i int) int {
	return xs[((i%len(xs))+len(xs))%len(xs)]
}

func (s *solver) slack(k int) float64 {
	e := s.edges[k]
	return s.dualvar[e.U] + s.dualvar[e.V] - 2*e.W
}

func (s *solver) blossomLeaves(b int) []int {
	if b < s.n {
		return []int{b}
	}
	leaves := make([]int, 0)
	for _, t := range s.blossomchilds[b] {
		leaves = append(leaves, s.blossomLeaves(t)...)
	}
	return leaves
}

// Labels the top-level blossom containing w with t, reached through endpoint
// p. A T-blossom's mate becomes an S-blossom in turn.
func (s *solver) assignLabel(w, t, p int) {
	b := s.inblossom[w]
	s.label[w], s.label[b] = t, t
	s.labelend[w], s.labelend[b] = p, p
	s.bestedge[w], s.bestedge[b] = -1, -1
	switch t {
	case 1:
		s.queue = append(s.queue, s.blossomLeaves(b)...)
	case 2:
		base := s.blossombase[b]
		s.assignLabel(s.endpoint[s.mate[base]], 1, s.mate[base]^1)
	}
}

// Traces back from v and w to find a common base (a new blossom) or -1 when
// the paths reach two different roots (an augmenting path).
func (s *solver) scanBlossom(v, w int) int {
	path := make([]int, 0)
	base := -1
	for v != -1 || w != -1 {
		b := s.inblossom[v]
		if s.label[b]&4 != 0 {
			base = s.blossombase[b]
			break
		}
		path = append(path, b)
		s.label[b] = 5
		if s.labelend[b] == -1 {
			v = -1
		} else {
			v = s.endpoint[s.labelend[b]]
			b = s.inblossom[v]
			v = s.endpoint[s.labelend[b]]
		}
		if w != -1 {
			v, w = w, v
		}
	}
	for _, b := range path {
		s.label[b] = 1
	}
	return base
}

// Builds a new S-blossom with the given base through edge k joining two
// S-vertices.
func (s *solver) addBlossom(base, k int) {
	v, w := s.edges[k].U, s.edges[k].V
	bb := s.inblossom[base]
	bv := s.inblossom[v]
	bw := s.inblossom[w]
	b := s.unusedblossoms[len(s.unusedblossoms)-1]
	s.unusedblossoms = s.unusedblossoms[:len(s.unusedblossoms)-1]
	s.blossombase[b] = base
	s.blossomparent[b] = -1
	s.blossomparent[bb] = b
	path := make([]int, 0)
	endps := make([]int, 0)
	for bv != bb {
		s.blossomparent[bv] = b
		path = append(path, bv)
		endps = append(endps, s.labelend[bv])
		v = s.endpoint[s.labelend[bv]]
		bv = s.inblossom[v]
	}
	path = append(path, bb)
	slices.Reverse(path)
	slices.Reverse(endps)
	endps = append(endps, 2*k)
	for bw != bb {
		s.blossomparent[bw] = b
		path = append(path, bw)
		endps = append(endps, s.labelend[bw]^1)
		w = s.endpoint[s.labelend[bw]]
		bw = s.inblossom[w]
	}
	s.blossomchilds[b] = path
	s.blossomendps[b] = endps
	s.label[b] = 1
	s.labelend[b] = s.labelend[bb]
	s.dualvar[b] = 0
	for _, v := range s.blossomLeaves(b) {
		if s.label[s.inblossom[v]] == 2 {
			s.queue = append(s.queue, v)
		}
		s.inblossom[v] = b
	}
	bestedgeto := filled(2*s.n, -1)
	for _, bv := range path {
		var nblists [][]int
		if s.blossombestedges[bv] == nil {
			for _, v := range s.blossomLeaves(bv) {
				nblist := make([]int, len(s.neighbend[v]))
				for i, p := range s.neighbend[v] {
					nblist[i] = p / 2
				}
				nblists = append(nblists, nblist)
			}
		} else {
			nblists = [][]int{s.blossombestedges[bv]}
		}
		for _, nblist := range nblists {
			for _, k := range nblist {
				j := s.edges[k].V
				if s.inblossom[j] == b {
					j = s.edges[k].U
				}
				bj := s.inblossom[j]
				if bj != b && s.label[bj] == 1 &&
					(bestedgeto[bj] == -1 || s.slack(k) < s.slack(bestedgeto[bj])) {
					bestedgeto[bj] = k
				}
			}
		}
		s.blossombestedges[bv] = nil
		s.bestedge[bv] = -1
	}
	best := make([]int, 0)
	for _, k := range bestedgeto {
		if k != -1 {
			best = append(best, k)
		}
	}
	s.blossombestedges[b] = best
	s.bestedge[b] = -1
	for _, k := range best {
		if s.bestedge[b] == -1 || s.slack(k) < s.slack(s.bestedge[b]) {
			s.bestedge[b] = k
		}
	}
}

// Expands blossom b into its sub-blossoms. At the end of a stage zero-dual
// sub-blossoms are expanded recursively; mid-stage a T-blossom's children are
// relabeled along the alternating path through it.
func (s *solver) expandBlossom(b int, endstage bool) {
	for _, sub := range s.blossomchilds[b] {
		s.blossomparent[sub] = -1
		switch {
		case sub < s.n:
			s.inblossom[sub] = sub
		case endstage && s.dualvar[sub] == 0:
			s.expandBlossom(sub, endstage)
		default:
			for _, v := range s.blossomLeaves(sub) {
				s.inblossom[v] = sub
			}
		}
	}
	if !endstage && s.label[b] == 2 {
		childs, endps := s.blossomchilds[b], s.blossomendps[b]
		entrychild := s.inblossom[s.endpoint[s.labelend[b]^1]]
		j := slices.Index(childs, entrychild)
		var jstep, endptrick int
		if j&1 != 0 {
			j -= len(childs)
			jstep, endptrick = 1, 0
		} else {
			jstep, endptrick = -1, 1
		}
		p := s.labelend[b]
		for j != 0 {
			s.label[s.endpoint[p^1]] = 0
			s.label[s.endpoint[at(endps, j-endptrick)^endptrick^1]] = 0
			s.assignLabel(s.endpoint[p^1], 2, p)
			s.allowedge[at(endps, j-endptrick)/2] = true
			j += jstep
			p = at(endps, j-endptrick) ^ endptrick
			s.allowedge[p/2] = true
			j += jstep
		}
		bv := at(childs, j)
		s.label[s.endpoint[p^1]], s.label[bv] = 2, 2
		s.labelend[s.endpoint[p^1]], s.labelend[bv] = p, p
		s.bestedge[bv] = -1
		j += jstep
		for at(childs, j) != entrychild {
			bv := at(childs, j)
			if s.label[bv] == 1 {
				j += jstep
				continue
			}
			var v int
			for _, v = range s.blossomLeaves(bv) {
				if s.label[v] != 0 {
					break
				}
			}
			if s.label[v] != 0 {
				s.label[v] = 0
				s.label[s.endpoint[s.mate[s.blossombase[bv]]]] = 0
				s.assignLabel(v, 2, s.labelend[v])
			}
			j += jstep
		}
	}
	s.label[b], s.labelend[b] = -1, -1
	s.blossomchilds[b], s.blossomendps[b] = nil, nil
	s.blossombase[b] = -1
	s.blossombestedges[b] = nil
	s.bestedge[b] = -1
	s.unusedblossoms = append(s.unusedblossoms, b)
}

// Swaps matched and unmatched edges along the alternating path through
// blossom b from vertex v to the base, making v the new base.
func (s *solver) augmentBlossom(b, v int) {
	t := v
	for s.blossomparent[t] != b {
		t = s.blossomparent[t]
	}
	if t >= s.n {
		s.augmentBlossom(t, v)
	}
	childs := s.blossomchilds[b]
	i := slices.Index(childs, t)
	j := i
	var jstep, endptrick int
	if i&1 != 0 {
		j -= len(childs)
		jstep, endptrick = 1, 0
	} else {
		jstep, endptrick = -1, 1
	}
	for j != 0 {
		j += jstep
		t = at(childs, j)
		p := at(s.blossomendps[b], j-endptrick) ^ endptrick
		if t >= s.n {
			s.augmentBlossom(t, s.endpoint[p])
		}
		j += jstep
		t = at(childs, j)
		if t >= s.n {
			s.augmentBlossom(t, s.endpoint[p^1])
		}
		s.mate[s.endpoint[p]] = p ^ 1
		s.mate[s.endpoint[p^1]] = p
	}
	s.blossomchilds[b] = append(slices.Clone(childs[i:]), childs[:i]...)
	endps := s.blossomendps[b]
	s.blossomendps[b] = append(slices.Clone(endps[i:]), endps[:i]...)
	s.blossombase[b] = s.blossombase[s.blossomchilds[b][0]]
}

// Augments the matching along the path through edge k between two S-vertices
// in different trees.
func (s *solver) augmentMatching(k int) {
	v, w := s.edges[k].U, s.edges[k].V
	for _, sp := range [2][2]int{{v, 2*k + 1}, {w, 2 * k}} {
		vtx, p := sp[0], sp[1]
		for {
			bs := s.inblossom[vtx]
			if bs >= s.n {
				s.augmentBlossom(bs, vtx)
			}
			s.mate[vtx] = p
			if s.labelend[bs] == -1 {
				break
			}
			t := s.endpoint[s.labelend[bs]]
			bt := s.inblossom[t]
			vtx = s.endpoint[s.labelend[bt]]
			j := s.endpoint[s.labelend[bt]^1]
			if bt >= s.n {
				s.augmentBlossom(bt, j)
			}
			s.mate[j] = s.labelend[bt]
			p = s.labelend[bt] ^ 1
		}
	}
}

func (s *solver) solve() {
	for range s.n {
		// new stage
		clear(s.label)
		for i := range s.bestedge {
			s.bestedge[i] = -1
		}
		for b := s.n; b < 2*s.n; b++ {
			s.blossombestedges[b] = nil
		}
		clear(s.allowedge)
		s.queue = s.queue[:0]
		for v := range s.n {
			if s.mate[v] == -1 && s.label[s.inblossom[v]] == 0 {
				s.assignLabel(v, 1, -1)
			}
		}
		augmented := false
		for {
			augmented = s.scanQueue()
			if augmented {
				break
			}
			if done := s.updateDuals(); done {
				break
			}
		}
		if !augmented {
			break
		}
		for b := s.n; b < 2*s.n; b++ {
			if s.blossomparent[b] == -1 && s.blossombase[b] >= 0 && s.label[b] == 1 && s.dualvar[b] == 0 {
				s.expandBlossom(b, true)
			}
		}
	}
}

// Scans queued S-vertices, growing the forest and forming blossoms. Returns
// true once the matching has been augmented.
func (s *solver) scanQueue() bool {
	for len(s.queue) > 0 {
		v := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		for _, p := range s.neighbend[v] {
			k := p / 2
			w := s.endpoint[p]
			if s.inblossom[v] == s.inblossom[w] {
				continue
			}
			var kslack float64
			if !s.allowedge[k] {
				kslack = s.slack(k)
				if kslack <= 0 {
					s.allowedge[k] = true
				}
			}
			switch {
			case s.allowedge[k]:
				switch {
				case s.label[s.inblossom[w]] == 0:
					s.assignLabel(w, 2, p^1)
				case s.label[s.inblossom[w]] == 1:
					if base := s.scanBlossom(v, w); base >= 0 {
						s.addBlossom(base, k)
					} else {
						s.augmentMatching(k)
						return true
					}
				case s.label[w] == 0:
					s.label[w] = 2
					s.labelend[w] = p ^ 1
				}
			case s.label[s.inblossom[w]] == 1:
				b := s.inblossom[v]
				if s.bestedge[b] == -1 || kslack < s.slack(s.bestedge[b]) {
					s.bestedge[b] = k
				}
			case s.label[w] == 0:
				if s.bestedge[w] == -1 || kslack < s.slack(s.bestedge[w]) {
					s.bestedge[w] = k
				}
			}
		}
	}
	return false
}

// Applies the largest dual update that keeps every slack non-negative and
// acts on the edge or blossom that limited it. Returns true when the stage is
// over without an augmentation.
func (s *solver) updateDuals() bool {
	deltatype := -1
	var delta float64
	deltaedge, deltablossom := -1, -1
	if !s.maxCardinality {
		deltatype = 1
		delta = slices.Min(s.dualvar[:s.n])
	}
	for v := range s.n {
		if s.label[s.inblossom[v]] == 0 && s.bestedge[v] != -1 {
			if d := s.slack(s.bestedge[v]); deltatype == -1 || d < delta {
				delta, deltatype, deltaedge = d, 2, s.bestedge[v]
			}
		}
	}
	for b := range 2 * s.n {
		if s.blossomparent[b] == -1 && s.label[b] == 1 && s.bestedge[b] != -1 {
			if d := s.slack(s.bestedge[b]) / 2; deltatype == -1 || d < delta {
				delta, deltatype, deltaedge = d, 3, s.bestedge[b]
			}
		}
	}
	for b := s.n; b < 2*s.n; b++ {
		if s.blossombase[b] >= 0 && s.blossomparent[b] == -1 && s.label[b] == 2 &&
			(deltatype == -1 || s.dualvar[b] < delta) {
			delta, deltatype, deltablossom = s.dualvar[b], 4, b
		}
	}
	if deltatype == -1 {
		// no further improvement possible with max cardinality; one last
		// update to keep the duals optimal
		deltatype = 1
		delta = max(0, slices.Min(s.dualvar[:s.n]))
	}
	for v := range s.n {
		switch s.label[s.inblossom[v]] {
		case 1:
			s.dualvar[v] -= delta
		case 2:
			s.dualvar[v] += delta
		}
	}
	for b := s.n; b < 2*s.n; b++ {
		if s.blossombase[b] >= 0 && s.blossomparent[b] == -1 {
			switch s.label[b] {
			case 1:
				s.dualvar[b] += delta
			case 2:
				s.dualvar[b] -= delta
			}
		}
	}
	switch deltatype {
	case 1:
		return true
	case 2:
		s.allowedge[deltaedge] = true
		i, j := s.edges[deltaedge].U, s.edges[deltaedge].V
		if s.label[s.inblossom[i]] == 0 {
			i = j
		}
		s.queue = append(s.queue, i)
	case 3:
		s.allowedge[deltaedge] = true
		s.queue = append(s.queue, s.edges[deltaedge].U)
	case 4:
		s.expandBlossom(deltablossom, false)
	}
	return false
}
