// Package config loads pmgraph settings from pmgraph.toml or a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pmgraph/internal/model"
)

// Names searched, in order, in each directory while walking up.
var Names = []string{"pmgraph.toml", ".pmgraph.toml", "pmgraph.yaml", "pmgraph.yml"}

// Config is the file-level configuration. Command-line flags override it.
type Config struct {
	Analysis Analysis `toml:"analysis" yaml:"analysis"`
	Cache    Cache    `toml:"cache" yaml:"cache"`
	Output   Output   `toml:"output" yaml:"output"`

	// Path is the file the values came from, empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

type Analysis struct {
	// Mode overrides the mode of every stamp line (mem, standby, disk, freeze).
	Mode          string            `toml:"mode" yaml:"mode"`
	Boot          bool              `toml:"boot" yaml:"boot"`
	Filter        []string          `toml:"filter" yaml:"filter"`
	Aliases       map[string]string `toml:"aliases" yaml:"aliases"`
	MaxGraphLines int               `toml:"max_graph_lines" yaml:"max_graph_lines"`
	Jobs          int               `toml:"jobs" yaml:"jobs"`
	MergeEvents   bool              `toml:"merge_events" yaml:"merge_events"`
}

type Cache struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Dir     string `toml:"dir" yaml:"dir"`
}

type Output struct {
	Format string `toml:"format" yaml:"format"` // json or msgpack
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Analysis: Analysis{
			MaxGraphLines: 1_000_000,
			Jobs:          runtime.GOMAXPROCS(0),
		},
		Output: Output{Format: "json"},
	}
}

// Find walks up from dir looking for one of Names.
func Find(dir string) (string, bool, error) {
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range Names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path, choosing the decoder by extension. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%s: unsupported config extension %q", path, ext)
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads the nearest config above dir, or the defaults.
func Discover(dir string) (Config, error) {
	path, ok, err := Find(dir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	switch model.Mode(c.Analysis.Mode) {
	case "", model.ModeMem, model.ModeStandby, model.ModeDisk, model.ModeFreeze:
	case model.ModeBoot:
		c.Analysis.Mode = ""
		c.Analysis.Boot = true
	default:
		return fmt.Errorf("analysis.mode: unknown mode %q", c.Analysis.Mode)
	}
	if c.Analysis.MaxGraphLines <= 0 {
		c.Analysis.MaxGraphLines = Default().Analysis.MaxGraphLines
	}
	if c.Analysis.Jobs <= 0 {
		c.Analysis.Jobs = Default().Analysis.Jobs
	}
	switch c.Output.Format {
	case "":
		c.Output.Format = "json"
	case "json", "msgpack":
	default:
		return fmt.Errorf("output.format: expected json or msgpack, got %q", c.Output.Format)
	}
	for i, name := range c.Analysis.Filter {
		c.Analysis.Filter[i] = strings.TrimSpace(name)
		if c.Analysis.Filter[i] == "" {
			return fmt.Errorf("analysis.filter[%d] is empty", i)
		}
	}
	return nil
}
