package diag

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

func testComponent() *gr.Component {
	return gr.NewComponent(nil, []gr.Adjacency{
		{U: 1, V: -2, Genome: "A", Distance: 3, HasDistance: true},
		{U: 1, V: -2, Genome: "B"},
		{U: -2, V: 4, Genome: "B"},
	})
}

func testMatchingGraph() *simple.WeightedUndirectedGraph {
	mg := simple.NewWeightedUndirectedGraph(0, 0)
	mg.SetWeightedEdge(mg.NewWeightedEdge(simple.Node(1), simple.Node(-2), -0.5))
	mg.SetWeightedEdge(mg.NewWeightedEdge(simple.Node(4), simple.Node(-2), -12.3456))
	return mg
}

func testTree() *ancestral.LabeledTree[int64] {
	return &ancestral.LabeledTree[int64]{Nodes: []ancestral.LabeledNode[int64]{
		{Label: 3, Children: []int{1, 2}},
		{Name: "A", Length: 0.1, Label: 3},
		{Name: "target", Length: 0.25, Label: 7},
	}}
}

func TestTreeDOT(t *testing.T) {
	expected := "digraph {\n" +
		"  0 [label=\"3\"];\n" +
		"  1 [label=\"3 A\"];\n" +
		"  2 [label=\"7 target\"];\n" +
		"  0 -> 1 [label=\"0.1\"];\n" +
		"  0 -> 2 [label=\"0.25\"];\n" +
		"}\n"
	assert.Equal(t, expected, TreeDOT(testTree()))
}

func TestComponentDOT(t *testing.T) {
	expected := "graph {\n" +
		"  \"-2\";\n" +
		"  \"1\";\n" +
		"  \"4\";\n" +
		"  \"1\" -- \"-2\" [color=\"red\", label=\"A 3\"];\n" +
		"  \"1\" -- \"-2\" [color=\"blue\", label=\"B\"];\n" +
		"  \"-2\" -- \"4\" [color=\"blue\", label=\"B\"];\n" +
		"}\n"
	assert.Equal(t, expected, ComponentDOT(testComponent()))
}

func TestMatchingDOT(t *testing.T) {
	expected := "graph {\n" +
		"  \"-2\";\n" +
		"  \"1\";\n" +
		"  \"4\";\n" +
		"  \"-2\" -- \"1\" [label=\"-0.50\"];\n" +
		"  \"-2\" -- \"4\" [label=\"-12.35\"];\n" +
		"}\n"
	assert.Equal(t, expected, MatchingDOT(testMatchingGraph()))
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), TreeDOT(testTree()))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug")
	d, err := NewDir(path, false)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for idx := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Component(idx, testComponent(), testMatchingGraph()))
			assert.NoError(t, d.NodeTree(idx, 1, testTree()))
		}()
	}
	wg.Wait()
	require.NoError(t, d.Close())
	for _, name := range []string{
		"comp0-bg.dot", "comp1-prelinks.dot", "comp2-node_1.dot", WeightsFile,
	} {
		assert.FileExists(t, filepath.Join(path, name))
	}
	assert.NoFileExists(t, filepath.Join(path, "comp0-bg.svg"))
	dot, err := os.ReadFile(filepath.Join(path, "comp1-node_1.dot"))
	require.NoError(t, err)
	assert.Equal(t, TreeDOT(testTree()), string(dot))
	assert.Len(t, d.weights, 6)
}

func TestDirEmptyClose(t *testing.T) {
	path := t.TempDir()
	d, err := NewDir(path, false)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.NoFileExists(t, filepath.Join(path, WeightsFile))
}

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.Component(0, testComponent(), testMatchingGraph()))
	assert.NoError(t, n.NodeTree(0, 1, testTree()))
	assert.NoError(t, n.Close())
}
