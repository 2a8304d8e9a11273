package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/jsdoublel/phyloadj/internal/prep"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected Config
		err      bool
	}{
		{
			name:     "empty file keeps defaults",
			content:  "",
			expected: Default(),
		},
		{
			name: "every key",
			content: `target = "query"
nprocs = 3
tree_format = "nexus"
debug_dir = "debug"
metrics_file = "run.prom"
render = true
`,
			expected: Config{
				Target:      "query",
				NProcs:      3,
				TreeFormat:  "nexus",
				DebugDir:    "debug",
				MetricsFile: "run.prom",
				Render:      true,
			},
		},
		{
			name:    "unknown key",
			content: "targte = \"query\"\n",
			err:     true,
		},
		{
			name:    "bad format",
			content: "tree_format = \"phylip\"\n",
			err:     true,
		},
		{
			name:    "negative nprocs",
			content: "nprocs = -1\n",
			err:     true,
		},
		{
			name:    "render without debug dir",
			content: "render = true\n",
			err:     true,
		},
		{
			name:    "empty target",
			content: "target = \"\"\n",
			err:     true,
		},
		{
			name:    "not toml",
			content: "target = \n",
			err:     true,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, test.content))
			if test.err {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFormat(t *testing.T) {
	f, err := Default().Format()
	require.NoError(t, err)
	assert.Equal(t, pr.Newick, f)
}

func TestSetNProcs(t *testing.T) {
	logger := log.New(io.Discard)
	maxProcs := runtime.GOMAXPROCS(0)
	assert.Equal(t, maxProcs, SetNProcs(0, logger))
	assert.Equal(t, maxProcs, SetNProcs(maxProcs+1, logger))
	assert.Equal(t, 1, SetNProcs(1, logger))
}
