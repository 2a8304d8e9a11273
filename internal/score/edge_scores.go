// Package scoring candidate adjacencies of breakpoint graph components. Every
// neighbor of a node is tried as its partner by reconstructing ancestral
// adjacencies over the species tree, and the reconstruction score becomes the
// weight of a directed edge in the component's scoring graph.
package score

import (
	"context"
	"errors"
	"maps"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
	obs "github.com/jsdoublel/phyloadj/internal/observability"
)

const DefaultTarget = "target"

// Reconstructs ancestral labels from a genome -> partner extremity mapping.
// Implementations must be safe for concurrent use.
type Estimator interface {
	Estimate(labels map[string]int64) (*ancestral.Result[int64], error)
}

type Options struct {
	Target  string         // leaf name of the genome being assembled
	NProcs  int            // nodes scored in parallel (<= 0 means no limit)
	Metrics *obs.Collector // may be nil
}

// Scoring graph of one component
type ComponentScores struct {
	Graph   *simple.WeightedDirectedGraph           // u -> v weighted by the score of v as u's partner
	Best    map[int64]*ancestral.LabeledTree[int64] // best scoring reconstruction for each node
	Skipped int                                     // candidates with nothing left after pruning
}

type candidate struct {
	target int64
	score  float64
}

type nodeScores struct {
	candidates []candidate
	best       *ancestral.LabeledTree[int64]
	skipped    int
}

// Builds the directed scoring graph of comp. Nodes are scored in parallel;
// each reconstruction is independent of the others.
func ScoreComponent(ctx context.Context, comp *gr.Component, est Estimator, opts Options) (*ComponentScores, error) {
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}
	nodes := comp.Nodes()
	results := make([]nodeScores, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	if opts.NProcs > 0 {
		g.SetLimit(opts.NProcs)
	}
	for i, n := range nodes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := scoreNode(gctx, comp, n, est, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	scores := &ComponentScores{
		Graph: simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		Best:  make(map[int64]*ancestral.LabeledTree[int64], len(nodes)),
	}
	for _, n := range nodes {
		scores.Graph.AddNode(simple.Node(n))
	}
	for i, res := range results {
		u := simple.Node(nodes[i])
		for _, c := range res.candidates {
			scores.Graph.SetWeightedEdge(scores.Graph.NewWeightedEdge(u, simple.Node(c.target), c.score))
		}
		if res.best != nil {
			scores.Best[nodes[i]] = res.best
		}
		scores.Skipped += res.skipped
	}
	return scores, nil
}

// Genome -> neighbor mapping over every adjacency incident to n. A genome
// observing several adjacencies at n keeps the one to the largest neighbor.
func observedPartners(comp *gr.Component, n int64) map[string]int64 {
	labels := make(map[string]int64)
	for _, nb := range comp.Neighbors(n) {
		for _, adj := range comp.Between(n, nb) {
			labels[adj.Genome] = adj.Other(n)
		}
	}
	return labels
}

func scoreNode(ctx context.Context, comp *gr.Component, n int64, est Estimator, opts Options) (nodeScores, error) {
	logger := obs.LoggerFrom(ctx)
	observed := observedPartners(comp, n)
	res := nodeScores{candidates: make([]candidate, 0, len(comp.Neighbors(n)))}
	bestScore := math.Inf(-1)
	for _, t := range comp.Neighbors(n) {
		labels := maps.Clone(observed)
		labels[opts.Target] = t
		start := time.Now()
		r, err := est.Estimate(labels)
		elapsed := time.Since(start).Seconds()
		if errors.Is(err, ancestral.ErrEmptyPrunedTree) {
			opts.Metrics.ObserveReconstruction(elapsed, 0, true)
			logger.Debug("skipping candidate, no labeled genome in species tree", "node", n, "partner", t)
			res.skipped++
			continue
		} else if err != nil {
			return nodeScores{}, err
		}
		opts.Metrics.ObserveReconstruction(elapsed, r.Labelings, false)
		res.candidates = append(res.candidates, candidate{target: t, score: r.Score})
		if r.Score > bestScore {
			bestScore = r.Score
			res.best = r.Tree
		}
	}
	return res, nil
}
