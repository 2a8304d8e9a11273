package prep

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/io/nexus"
	"github.com/evolbioinfo/gotree/tree"

	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrWritingFile   = errors.New("error writing file")
)

type Format int

const (
	Newick Format = iota
	Nexus
)

var ParseFormat = map[string]Format{
	"newick": Newick,
	"nexus":  Nexus,
}

func (f *Format) Set(s string) error {
	if format, ok := ParseFormat[s]; ok {
		*f = format
		return nil
	}
	return fmt.Errorf("\"%s\" is not a valid species tree file format", s)
}

func (f Format) String() string {
	for s, fr := range ParseFormat {
		if fr == f {
			return s
		}
	}
	panic(fmt.Sprintf("format (%d) does not exist", f))
}

// Type name shown in cobra/pflag usage strings
func (f Format) Type() string { return "format" }

// Reads and validates the species tree file. Returns an error if the file does
// not hold exactly one tree, the tree cannot be parsed, or it fails validation
// (unnamed or duplicate leaves, missing or negative branch lengths).
func ReadSpeciesTree(treeFile string, format Format) (*gr.SpeciesTree, error) {
	treBytes, err := os.ReadFile(treeFile)
	if err != nil {
		return nil, fmt.Errorf("error reading tree file: %w", err)
	}
	st, err := ParseSpeciesTree(bytes.NewReader(treBytes), format)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, treeFile)
	}
	return st, nil
}

// Parses a species tree in the given format from r
func ParseSpeciesTree(r io.Reader, format Format) (*gr.SpeciesTree, error) {
	flags := log.Flags()
	lout := log.Writer()
	log.SetOutput(io.Discard) // gotree can be noisy
	defer func() {
		log.SetOutput(lout)
		log.SetFlags(flags)
	}()
	var tre *tree.Tree
	switch format {
	case Newick:
		treBytes, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("error reading species tree: %w", err)
		}
		treBytes = bytes.TrimSpace(treBytes)
		if bytes.Count(treBytes, []byte{byte('\n')}) != 0 || len(treBytes) == 0 {
			return nil, fmt.Errorf("%w, there should be exactly one newick species tree", ErrInvalidFile)
		}
		if tre, err = newick.NewParser(bytes.NewReader(treBytes)).Parse(); err != nil {
			return nil, fmt.Errorf("%w, error parsing species tree newick string: %s", ErrInvalidFormat, err.Error())
		}
	case Nexus:
		nex, err := nexus.NewParser(r).Parse()
		if err != nil {
			return nil, fmt.Errorf("%w, error reading species tree nexus: %s", ErrInvalidFormat, err.Error())
		}
		nTrees := 0
		nex.IterateTrees(func(_ string, t *tree.Tree) {
			nTrees++
			tre = t
		})
		if nTrees != 1 {
			return nil, fmt.Errorf("%w, nexus file holds %d trees, expected exactly one", ErrInvalidFile, nTrees)
		}
	default:
		return nil, fmt.Errorf("%w, not a valid file format", ErrInvalidFile)
	}
	return ConvertSpeciesTree(tre)
}

// Parses a single newick string into a species tree
func ParseNewick(nwk string) (*gr.SpeciesTree, error) {
	return ParseSpeciesTree(strings.NewReader(nwk), Newick)
}

// Reads a breakpoint graph file. Each non-blank line that is not a # comment
// holds "u v genome [distance]", where u and v are signed extremities.
func ReadBreakpointGraph(graphFile string) (*gr.BreakpointGraph, error) {
	file, err := os.Open(graphFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", graphFile, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", graphFile, err))
		}
	}()
	bg, err := ParseBreakpointGraph(file)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, graphFile)
	}
	return bg, nil
}

func ParseBreakpointGraph(r io.Reader) (*gr.BreakpointGraph, error) {
	bg := gr.NewBreakpointGraph()
	scanner := bufio.NewScanner(r)
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		adj, err := parseAdjacency(line)
		if err != nil {
			return nil, fmt.Errorf("%w, line %d: %s", ErrInvalidFormat, i, err.Error())
		}
		if err := bg.AddAdjacency(adj); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading breakpoint graph: %w", err)
	}
	if bg.NumAdjacencies() == 0 {
		return nil, fmt.Errorf("%w, empty breakpoint graph", ErrInvalidFile)
	}
	return bg, nil
}

func parseAdjacency(line string) (gr.Adjacency, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 && len(fields) != 4 {
		return gr.Adjacency{}, fmt.Errorf("expected 3 or 4 fields, found %d", len(fields))
	}
	u, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return gr.Adjacency{}, fmt.Errorf("bad extremity %q", fields[0])
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return gr.Adjacency{}, fmt.Errorf("bad extremity %q", fields[1])
	}
	adj := gr.Adjacency{U: u, V: v, Genome: fields[2]}
	if len(fields) == 4 {
		if adj.Distance, err = strconv.ParseFloat(fields[3], 64); err != nil {
			return gr.Adjacency{}, fmt.Errorf("bad distance %q", fields[3])
		}
		adj.HasDistance = true
	}
	return adj, nil
}

// Writes chosen connections as tab separated "start end distance" rows sorted
// by start.
func WriteConnections(conns map[int64]gr.Connection, w io.Writer) (err error) {
	keys := make([]int64, 0, len(conns))
	for k := range conns {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	data := make([][]string, 0, len(keys)+1)
	data = append(data, []string{"start", "end", "distance"})
	for _, k := range keys {
		c := conns[k]
		data = append(data, []string{
			strconv.FormatInt(c.Start, 10),
			strconv.FormatInt(c.End, 10),
			strconv.FormatFloat(c.Distance, 'f', -1, 64),
		})
	}
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
	}
	return
}
