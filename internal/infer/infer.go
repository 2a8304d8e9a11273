// Package infer chooses adjacencies for the genome being assembled. Each
// connected component of the breakpoint graph is scored, matched, and the
// resulting pairs merged into one map keyed by extremity.
package infer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
	obs "github.com/jsdoublel/phyloadj/internal/observability"
	sc "github.com/jsdoublel/phyloadj/internal/score"
)

var ErrKeyCollision = errors.New("adjacency key collision")

type BreakpointGraph interface {
	Components() []*gr.Component
	VertexDistance(a, b int64) float64
}

// Receives diagnostics for non-trivial components. Methods are called from
// several goroutines at once.
type Sink interface {
	Component(idx int, comp *gr.Component, mg *simple.WeightedUndirectedGraph) error
	NodeTree(idx int, node int64, tree *ancestral.LabeledTree[int64]) error
}

type InferOptions struct {
	Target  string         // leaf name of the genome being assembled
	NProcs  int            // number of parallel processes
	Metrics *obs.Collector // may be nil
	Sink    Sink           // nil disables diagnostics
}

// Finds adjacencies for every extremity of bg. A chosen pair (a, b, d) is
// stored as Connection{-a, b, d} under -a and Connection{-b, a, d} under -b.
// Errors come from the species tree reconstruction, the diagnostics sink, or
// a key produced by two pairs (components that are not disjoint).
func FindAdjacencies(ctx context.Context, bg BreakpointGraph, st *gr.SpeciesTree, opts InferOptions) (map[int64]gr.Connection, error) {
	return findAdjacencies(ctx, bg, ancestral.NewReconstructor[int64](st), opts)
}

func findAdjacencies(ctx context.Context, bg BreakpointGraph, est sc.Estimator, opts InferOptions) (map[int64]gr.Connection, error) {
	logger := obs.LoggerFrom(ctx)
	comps := bg.Components()
	logger.Infof("%d connected components", len(comps))
	pairs := make([][]Pair, len(comps))
	// Nodes are only scored in parallel when there is a single component,
	// so at most NProcs reconstructions run at once.
	scoreOpts := sc.Options{Target: opts.Target, NProcs: 1, Metrics: opts.Metrics}
	if len(comps) == 1 {
		scoreOpts.NProcs = opts.NProcs
	}
	g, gctx := errgroup.WithContext(ctx)
	if opts.NProcs > 0 {
		g.SetLimit(opts.NProcs)
	}
	for i, comp := range comps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := processComponent(gctx, i, comp, bg, est, scoreOpts, opts)
			if err != nil {
				return fmt.Errorf("component %d: %w", i, err)
			}
			pairs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergePairs(pairs)
}

func processComponent(ctx context.Context, idx int, comp *gr.Component, bg BreakpointGraph, est sc.Estimator, scoreOpts sc.Options, opts InferOptions) ([]Pair, error) {
	logger := obs.LoggerFrom(ctx).With("component", idx)
	if comp.Len() == 2 {
		pairs, _ := Partition(comp, nil, bg.VertexDistance)
		opts.Metrics.ObserveComponent(obs.ComponentTrivial, comp.Len(), len(pairs))
		logger.Debug("trivial component", "nodes", comp.Len(), "pairs", len(pairs))
		return pairs, nil
	}
	scores, err := sc.ScoreComponent(ctx, comp, est, scoreOpts)
	if err != nil {
		return nil, err
	}
	pairs, mg := Partition(comp, scores.Graph, bg.VertexDistance)
	opts.Metrics.ObserveComponent(obs.ComponentScored, comp.Len(), len(pairs))
	logger.Debug("scored component", "nodes", comp.Len(), "pairs", len(pairs), "skipped", scores.Skipped)
	if opts.Sink != nil {
		if err := writeDiagnostics(opts.Sink, idx, comp, mg, scores); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

func writeDiagnostics(sink Sink, idx int, comp *gr.Component, mg *simple.WeightedUndirectedGraph, scores *sc.ComponentScores) error {
	if err := sink.Component(idx, comp, mg); err != nil {
		return err
	}
	nodes := make([]int64, 0, len(scores.Best))
	for n := range scores.Best {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	for _, n := range nodes {
		if err := sink.NodeTree(idx, n, scores.Best[n]); err != nil {
			return err
		}
	}
	return nil
}

// Merges the pairs of every component in component order
func mergePairs(pairs [][]Pair) (map[int64]gr.Connection, error) {
	conns := make(map[int64]gr.Connection)
	for i, ps := range pairs {
		for _, p := range ps {
			for _, c := range []gr.Connection{
				{Start: -p.A, End: p.B, Distance: p.Distance},
				{Start: -p.B, End: p.A, Distance: p.Distance},
			} {
				if prev, ok := conns[c.Start]; ok {
					return nil, fmt.Errorf("%w, key %d set by (%d, %d) and again by (%d, %d) in component %d",
						ErrKeyCollision, c.Start, -prev.Start, prev.End, -c.Start, c.End, i)
				}
				conns[c.Start] = c
			}
		}
	}
	return conns, nil
}
