// Package config holds the run configuration of phyloadj, read from an
// optional TOML file and overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	pr "github.com/jsdoublel/phyloadj/internal/prep"
	sc "github.com/jsdoublel/phyloadj/internal/score"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Target      string `toml:"target"`       // leaf name of the genome being assembled
	NProcs      int    `toml:"nprocs"`       // worker limit (0 = GOMAXPROCS)
	TreeFormat  string `toml:"tree_format"`  // newick or nexus
	DebugDir    string `toml:"debug_dir"`    // diagnostics are written here when set
	MetricsFile string `toml:"metrics_file"` // prometheus textfile output when set
	Render      bool   `toml:"render"`       // render diagnostics to SVG
}

func Default() Config {
	return Config{
		Target:     sc.DefaultTarget,
		TreeFormat: pr.Newick.String(),
	}
}

// Reads a TOML config on top of the defaults. Keys phyloadj does not know are
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w, unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Target == "":
		return fmt.Errorf("%w, empty target", ErrInvalidConfig)
	case c.NProcs < 0:
		return fmt.Errorf("%w, negative nprocs %d", ErrInvalidConfig, c.NProcs)
	case c.Render && c.DebugDir == "":
		return fmt.Errorf("%w, render needs debug_dir", ErrInvalidConfig)
	}
	if _, err := c.Format(); err != nil {
		return err
	}
	return nil
}

func (c Config) Format() (pr.Format, error) {
	var f pr.Format
	if err := f.Set(c.TreeFormat); err != nil {
		return f, fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	return f, nil
}

// Clamps nprocs to GOMAXPROCS, using every process when unset
func SetNProcs(nprocs int, logger *log.Logger) int {
	maxProcs := runtime.GOMAXPROCS(0)
	switch {
	case nprocs > maxProcs:
		logger.Warnf("%d is greater than available processes (%d); limit set to %d", nprocs, maxProcs, maxProcs)
		return maxProcs
	case nprocs <= 0:
		logger.Debugf("number of processes not set; defaulting to %d processes", maxProcs)
		return maxProcs
	default:
		return nprocs
	}
}
