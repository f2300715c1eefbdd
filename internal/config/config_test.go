package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	path := write(t, t.TempDir(), "pmgraph.toml", `
[analysis]
mode = "freeze"
filter = ["i2c", " usb1 "]
max_graph_lines = 500
merge_events = true

[analysis.aliases]
"0000:00:1f.3" = "audio"

[cache]
enabled = true
dir = "/tmp/pmgraph"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	a := cfg.Analysis
	if a.Mode != "freeze" || a.MaxGraphLines != 500 || !a.MergeEvents {
		t.Errorf("analysis = %+v", a)
	}
	if len(a.Filter) != 2 || a.Filter[1] != "usb1" {
		t.Errorf("filter = %q", a.Filter)
	}
	if a.Aliases["0000:00:1f.3"] != "audio" {
		t.Errorf("aliases = %v", a.Aliases)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != "/tmp/pmgraph" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Output.Format != "json" || a.Jobs <= 0 || cfg.Path != path {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := write(t, t.TempDir(), "pmgraph.yaml", "analysis:\n  mode: boot\n  jobs: 2\noutput:\n  format: msgpack\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Analysis.Boot || cfg.Analysis.Mode != "" {
		t.Errorf("boot mode not folded: %+v", cfg.Analysis)
	}
	if cfg.Analysis.Jobs != 2 || cfg.Output.Format != "msgpack" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(write(t, t.TempDir(), "pmgraph.yml", ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.MaxGraphLines != 1_000_000 {
		t.Errorf("defaults lost: %+v", cfg.Analysis)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, file, body, want string
	}{
		{"bad mode", "a.toml", "[analysis]\nmode = \"hibernate\"\n", "unknown mode"},
		{"bad format", "b.toml", "[output]\nformat = \"xml\"\n", "output.format"},
		{"bad toml", "c.toml", "[analysis\n", "failed to parse TOML"},
		{"unknown yaml key", "d.yaml", "analysis:\n  colour: red\n", "failed to parse YAML"},
		{"empty filter", "e.toml", "[analysis]\nfilter = [\"\"]\n", "analysis.filter[0]"},
		{"extension", "f.ini", "", "unsupported config extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, dir, tt.file, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pmgraph.toml", "[analysis]\nmode = \"standby\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Mode != "standby" {
		t.Fatalf("mode = %q", cfg.Analysis.Mode)
	}
}
