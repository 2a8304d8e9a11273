/*
phyloadj chooses the adjacencies of a target genome from a breakpoint graph of
related genomes. Candidate adjacencies are scored by ancestral reconstruction
over the species tree and resolved with a maximum cardinality matching.

usage: phyloadj [ --config <file> | -v ] <command> [flags] <args>

commands:

	infer		chooses adjacencies for the target genome
	estimate	reconstructs ancestral labels for one labeling of the leaves

positional arguments:

	<tree>	species tree (newick or nexus), with the target genome as a leaf
	<graph>	breakpoint graph, one "u v genome [distance]" adjacency per line

examples:

	  infer command example:
		phyloadj infer species.nwk breakpoints.txt > adjacencies.tsv 2> log.txt

	  estimate command example:
		phyloadj estimate species.nwk A=1 B=2 C=1 target=2
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	"github.com/jsdoublel/phyloadj/internal/config"
	"github.com/jsdoublel/phyloadj/internal/diag"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
	"github.com/jsdoublel/phyloadj/internal/infer"
	obs "github.com/jsdoublel/phyloadj/internal/observability"
	pr "github.com/jsdoublel/phyloadj/internal/prep"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "phyloadj encountered an error ::"
)

var ErrInvalidLabel = errors.New("invalid leaf label")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", ErrMessage, err)
		os.Exit(1)
	}
}

type app struct {
	verbose    bool
	configFile string
	cfg        config.Config
	logger     *log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{cfg: config.Default()}
	root := &cobra.Command{
		Use:               "phyloadj",
		Short:             "Infer the adjacencies of a target genome from a breakpoint graph and species tree",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "TOML run configuration `file`")
	root.AddCommand(a.inferCommand(), a.estimateCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = obs.NewLogger(cmd.ErrOrStderr(), level)
	cmd.SetContext(obs.WithLogger(cmd.Context(), a.logger))
	if a.configFile != "" {
		cfg, err := config.Load(a.configFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	return nil
}

func (a *app) inferCommand() *cobra.Command {
	var (
		format      = pr.Newick
		nprocs      int
		target      string
		debugDir    string
		metricsFile string
		render      bool
		output      string
	)
	cmd := &cobra.Command{
		Use:   "infer <tree> <graph>",
		Short: "Choose adjacencies for the target genome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("format") {
				a.cfg.TreeFormat = format.String()
			}
			if flags.Changed("nprocs") {
				a.cfg.NProcs = nprocs
			}
			if flags.Changed("target") {
				a.cfg.Target = target
			}
			if flags.Changed("debug-dir") {
				a.cfg.DebugDir = debugDir
			}
			if flags.Changed("metrics-file") {
				a.cfg.MetricsFile = metricsFile
			}
			if flags.Changed("render") {
				a.cfg.Render = render
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runInfer(cmd.Context(), args[0], args[1], output, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.VarP(&format, "format", "f", "species tree `format` [ newick | nexus ]")
	flags.IntVarP(&nprocs, "nprocs", "n", 0, "number of reconstructions run in parallel")
	flags.StringVar(&target, "target", a.cfg.Target, "leaf `name` of the genome being assembled")
	flags.StringVar(&debugDir, "debug-dir", "", "write diagnostics to `dir`")
	flags.StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to `file`")
	flags.BoolVar(&render, "render", false, "render diagnostics to SVG (needs --debug-dir)")
	flags.StringVarP(&output, "output", "o", "", "write adjacencies to `file` instead of stdout")
	return cmd
}

type sink interface {
	infer.Sink
	Close() error
}

func (a *app) runInfer(ctx context.Context, treeFile, graphFile, output string, stdout io.Writer) error {
	progress := obs.NewProgress(a.logger)
	format, err := a.cfg.Format()
	if err != nil {
		return err
	}
	a.logger.Info("reading species tree", "file", treeFile)
	st, err := pr.ReadSpeciesTree(treeFile, format)
	if err != nil {
		return err
	}
	if !st.HasLeaf(a.cfg.Target) {
		a.logger.Warn("target genome is not a leaf of the species tree", "target", a.cfg.Target)
	}
	a.logger.Info("reading breakpoint graph", "file", graphFile)
	bg, err := pr.ReadBreakpointGraph(graphFile)
	if err != nil {
		return err
	}
	a.logger.Info("breakpoint graph", "extremities", bg.NumNodes(), "adjacencies", bg.NumAdjacencies())
	for _, g := range pr.UnknownGenomes(st, bg.Components()) {
		a.logger.Warn("genome is not a leaf of the species tree, its observations are ignored during reconstruction", "genome", g)
	}

	var metrics *obs.Collector
	if a.cfg.MetricsFile != "" {
		if metrics, err = obs.NewCollector(); err != nil {
			return err
		}
	}
	var diagnostics sink = diag.Nop{}
	if a.cfg.DebugDir != "" {
		if diagnostics, err = diag.NewDir(a.cfg.DebugDir, a.cfg.Render); err != nil {
			return err
		}
		a.logger.Info("writing diagnostics", "dir", a.cfg.DebugDir, "render", a.cfg.Render)
	}

	conns, err := infer.FindAdjacencies(ctx, bg, st, infer.InferOptions{
		Target:  a.cfg.Target,
		NProcs:  config.SetNProcs(a.cfg.NProcs, a.logger),
		Metrics: metrics,
		Sink:    diagnostics,
	})
	if err != nil {
		return err
	}
	if err := diagnostics.Close(); err != nil {
		return err
	}
	a.logger.Info("writing adjacencies", "connections", len(conns))
	if err := writeOutput(conns, output, stdout); err != nil {
		return err
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return err
		}
	}
	progress.Done("done.")
	return nil
}

func writeOutput(conns map[int64]gr.Connection, output string, stdout io.Writer) (err error) {
	if output == "" {
		return pr.WriteConnections(conns, stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("%w, %w", pr.ErrWritingFile, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w, %w", pr.ErrWritingFile, cerr)
		}
	}()
	return pr.WriteConnections(conns, f)
}

func (a *app) estimateCommand() *cobra.Command {
	format := pr.Newick
	cmd := &cobra.Command{
		Use:   "estimate <tree> <name=label>...",
		Short: "Reconstruct ancestral labels for one labeling of the leaves",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("format") {
				a.cfg.TreeFormat = format.String()
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runEstimate(args[0], args[1:], cmd.OutOrStdout())
		},
	}
	cmd.Flags().VarP(&format, "format", "f", "species tree `format` [ newick | nexus ]")
	return cmd
}

func (a *app) runEstimate(treeFile string, labelArgs []string, stdout io.Writer) error {
	labels, err := parseLabels(labelArgs)
	if err != nil {
		return err
	}
	format, err := a.cfg.Format()
	if err != nil {
		return err
	}
	st, err := pr.ReadSpeciesTree(treeFile, format)
	if err != nil {
		return err
	}
	for name := range labels {
		if !st.HasLeaf(name) {
			a.logger.Warn("not a leaf of the species tree, ignored", "genome", name)
		}
	}
	res, err := ancestral.NewReconstructor[string](st).Estimate(labels)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "score\t%g\nbreaks\t%d\nlabelings\t%d\ntree\t%s\n",
		res.Score, res.Breaks, res.Labelings, res.Tree.Newick())
	return err
}

// Parses name=label arguments
func parseLabels(args []string) (map[string]string, error) {
	labels := make(map[string]string, len(args))
	for _, arg := range args {
		name, label, ok := strings.Cut(arg, "=")
		if !ok || name == "" || label == "" {
			return nil, fmt.Errorf("%w \"%s\", expected name=label", ErrInvalidLabel, arg)
		}
		if _, dup := labels[name]; dup {
			return nil, fmt.Errorf("%w, %s labeled twice", ErrInvalidLabel, name)
		}
		labels[name] = label
	}
	return labels, nil
}
