package score

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
	pr "github.com/jsdoublel/phyloadj/internal/prep"
)

var errBroken = errors.New("broken estimator")

// Scores a candidate by its partner id, records every call
type fakeEstimator struct {
	mu    sync.Mutex
	calls []map[string]int64
	empty map[int64]bool // partners reported as pruning to nothing
	fail  bool
}

func (f *fakeEstimator) Estimate(labels map[string]int64) (*ancestral.Result[int64], error) {
	f.mu.Lock()
	f.calls = append(f.calls, maps.Clone(labels))
	f.mu.Unlock()
	if f.fail {
		return nil, errBroken
	}
	if f.empty[labels[DefaultTarget]] {
		return nil, ancestral.ErrEmptyPrunedTree
	}
	return &ancestral.Result[int64]{Score: float64(labels[DefaultTarget]), Labelings: 1}, nil
}

func pathComponent() *gr.Component {
	return gr.NewComponent(nil, []gr.Adjacency{
		{U: 1, V: 2, Genome: "A"},
		{U: 2, V: 3, Genome: "B"},
	})
}

func weight(t *testing.T, s *ComponentScores, u, v int64) float64 {
	t.Helper()
	e := s.Graph.WeightedEdge(u, v)
	require.NotNil(t, e, "missing edge %d -> %d", u, v)
	return e.Weight()
}

func TestScoreComponent(t *testing.T) {
	testCases := []struct {
		name     string
		empty    map[int64]bool
		expected map[[2]int64]float64
		skipped  int
	}{
		{
			name: "every candidate scored",
			expected: map[[2]int64]float64{
				{1, 2}: 2, {2, 1}: 1, {2, 3}: 3, {3, 2}: 2,
			},
		},
		{
			name:  "empty reconstruction skipped",
			empty: map[int64]bool{3: true},
			expected: map[[2]int64]float64{
				{1, 2}: 2, {2, 1}: 1, {3, 2}: 2,
			},
			skipped: 1,
		},
		{
			name:     "nothing left",
			empty:    map[int64]bool{1: true, 2: true, 3: true},
			expected: map[[2]int64]float64{},
			skipped:  4,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			est := &fakeEstimator{empty: test.empty}
			scores, err := ScoreComponent(context.Background(), pathComponent(), est, Options{NProcs: 2})
			require.NoError(t, err)
			assert.Equal(t, 3, scores.Graph.Nodes().Len())
			assert.Equal(t, len(test.expected), scores.Graph.Edges().Len())
			for uv, w := range test.expected {
				assert.Equal(t, w, weight(t, scores, uv[0], uv[1]))
			}
			assert.Equal(t, test.skipped, scores.Skipped)
			assert.Len(t, est.calls, 4)
		})
	}
}

func TestScoreComponentLabels(t *testing.T) {
	comp := gr.NewComponent(nil, []gr.Adjacency{
		{U: 1, V: 2, Genome: "A"},
		{U: 1, V: 3, Genome: "A"},
		{U: 1, V: 3, Genome: "B"},
	})
	est := &fakeEstimator{}
	_, err := ScoreComponent(context.Background(), comp, est, Options{})
	require.NoError(t, err)
	expected := []map[string]int64{
		{"A": 3, "B": 3, "target": 2},
		{"A": 3, "B": 3, "target": 3},
		{"A": 1, "target": 1},
		{"A": 1, "B": 1, "target": 1},
	}
	assert.ElementsMatch(t, expected, est.calls)
}

func TestScoreComponentCustomTarget(t *testing.T) {
	est := &fakeEstimator{}
	_, err := ScoreComponent(context.Background(), pathComponent(), est, Options{Target: "query"})
	require.NoError(t, err)
	for _, call := range est.calls {
		assert.Contains(t, call, "query")
		assert.NotContains(t, call, DefaultTarget)
	}
}

func TestScoreComponentError(t *testing.T) {
	est := &fakeEstimator{fail: true}
	_, err := ScoreComponent(context.Background(), pathComponent(), est, Options{NProcs: 1})
	assert.ErrorIs(t, err, errBroken)
}

func TestScoreComponentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScoreComponent(ctx, pathComponent(), &fakeEstimator{}, Options{NProcs: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreComponentReconstructor(t *testing.T) {
	st, err := pr.ParseNewick("((A:0.1,B:0.1):0.1,(C:0.1,target:0.1):0.1);")
	require.NoError(t, err)
	rec := ancestral.NewReconstructor[int64](st)
	comp := gr.NewComponent(nil, []gr.Adjacency{
		{U: 1, V: 2, Genome: "A"},
		{U: 1, V: 2, Genome: "B"},
		{U: 1, V: 3, Genome: "C"},
		{U: 2, V: 3, Genome: "D"}, // not in the tree
	})
	scores, err := ScoreComponent(context.Background(), comp, rec, Options{NProcs: 3})
	require.NoError(t, err)
	for _, u := range comp.Nodes() {
		observed := observedPartners(comp, u)
		for _, v := range comp.Neighbors(u) {
			labels := maps.Clone(observed)
			labels[DefaultTarget] = v
			r, err := rec.Estimate(labels)
			require.NoError(t, err)
			assert.InDelta(t, r.Score, weight(t, scores, u, v), 1e-12, "edge %d -> %d", u, v)
		}
		assert.NotNil(t, scores.Best[u])
	}
	assert.Zero(t, scores.Skipped)
}
