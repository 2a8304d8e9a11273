package diag

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

const (
	WeightsFile = "weights.png"

	plotH = 4 * vg.Inch
	plotW = 6 * vg.Inch

	histBins = 20
)

var (
	ErrWritingDiagnostics = errors.New("error writing diagnostics")

	histColor = color.RGBA{R: 37, G: 150, B: 190, A: 255}
)

// Discards every diagnostic
type Nop struct{}

func (Nop) Component(int, *gr.Component, *simple.WeightedUndirectedGraph) error { return nil }

func (Nop) NodeTree(int, int64, *ancestral.LabeledTree[int64]) error { return nil }

func (Nop) Close() error { return nil }

// Writes diagnostics into a directory. Safe for concurrent use; Close writes
// the weight histogram once every component is done.
type Dir struct {
	path   string
	render bool

	mu      sync.Mutex
	weights []float64
}

// Creates path if needed. With render every DOT file is also rendered to SVG.
func NewDir(path string, render bool) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrWritingDiagnostics, err)
	}
	return &Dir{path: path, render: render}, nil
}

// Writes comp<idx>-bg.dot and comp<idx>-prelinks.dot
func (d *Dir) Component(idx int, comp *gr.Component, mg *simple.WeightedUndirectedGraph) error {
	if err := d.writeDOT(fmt.Sprintf("comp%d-bg", idx), ComponentDOT(comp)); err != nil {
		return err
	}
	if err := d.writeDOT(fmt.Sprintf("comp%d-prelinks", idx), MatchingDOT(mg)); err != nil {
		return err
	}
	edges := mg.WeightedEdges()
	weights := make([]float64, 0, edges.Len())
	for edges.Next() {
		weights = append(weights, edges.WeightedEdge().Weight())
	}
	d.mu.Lock()
	d.weights = append(d.weights, weights...)
	d.mu.Unlock()
	return nil
}

// Writes comp<idx>-node_<node>.dot
func (d *Dir) NodeTree(idx int, node int64, tree *ancestral.LabeledTree[int64]) error {
	return d.writeDOT(fmt.Sprintf("comp%d-node_%d", idx, node), TreeDOT(tree))
}

// Writes the histogram of every matching weight seen, if any
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.weights) == 0 {
		return nil
	}
	if err := WriteWeightHistogram(d.weights, filepath.Join(d.path, WeightsFile)); err != nil {
		return fmt.Errorf("%w, %w", ErrWritingDiagnostics, err)
	}
	return nil
}

func (d *Dir) writeDOT(name, dot string) error {
	file := filepath.Join(d.path, name+".dot")
	if err := os.WriteFile(file, []byte(dot), 0o644); err != nil {
		return fmt.Errorf("%w, %w", ErrWritingDiagnostics, err)
	}
	if !d.render {
		return nil
	}
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		return fmt.Errorf("%w, %s: %w", ErrWritingDiagnostics, file, err)
	}
	if err := os.WriteFile(filepath.Join(d.path, name+".svg"), svg, 0o644); err != nil {
		return fmt.Errorf("%w, %w", ErrWritingDiagnostics, err)
	}
	return nil
}

// Saves a histogram of weights to filename; the image format follows the
// extension
func WriteWeightHistogram(weights []float64, filename string) error {
	p := plot.New()
	p.Title.Text = "Matching weights"
	p.X.Label.Text = "Negated summed score"
	p.Y.Label.Text = "Candidate adjacencies"
	h, err := plotter.NewHist(plotter.Values(weights), histBins)
	if err != nil {
		return err
	}
	h.FillColor = histColor
	p.Add(h)
	return p.Save(plotW, plotH, filename)
}
