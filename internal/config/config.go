// Package config handles pywat.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up next to sources.
const FileName = "pywat.toml"

// Output formats for build.
const (
	EmitWAT      = "wat"
	EmitArtifact = "artifact"
	EmitWasm     = "wasm"
)

// Config represents a pywat.toml file.
type Config struct {
	Build   Build   `toml:"build"`
	Runtime Runtime `toml:"runtime"`
	Log     Log     `toml:"log"`

	// Path is the file the configuration was read from; empty for defaults.
	Path string `toml:"-"`
}

// Build configures compiler output.
type Build struct {
	Output string `toml:"output"`
	Emit   string `toml:"emit"`
}

// Runtime configures the reference runtime used by run and repl.
type Runtime struct {
	MemoryPages int `toml:"memory-pages"`
	MaxDepth    int `toml:"max-depth"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Build:   Build{Emit: EmitWAT},
		Runtime: Runtime{MemoryPages: 1, MaxDepth: 10000},
	}
}

// Load parses the file at path over the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	c.Path = path
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(filepath.Dir(path), c.Log.File)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a pywat.toml file and loads
// it. Without one it returns the defaults.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Build.Emit {
	case EmitWAT, EmitArtifact, EmitWasm:
	default:
		return fmt.Errorf("build.emit must be %q, %q or %q, got %q", EmitWAT, EmitArtifact, EmitWasm, c.Build.Emit)
	}
	if c.Runtime.MemoryPages < 1 || c.Runtime.MemoryPages > 65536 {
		return fmt.Errorf("runtime.memory-pages must be between 1 and 65536, got %d", c.Runtime.MemoryPages)
	}
	if c.Runtime.MaxDepth < 1 {
		return fmt.Errorf("runtime.max-depth must be positive, got %d", c.Runtime.MaxDepth)
	}
	return nil
}

// OutputPath is where build writes for source when no -o is given: the
// configured output, or source with the emit format's extension.
func (c *Config) OutputPath(source string, emit string) string {
	if c.Build.Output != "" {
		if c.Path != "" && !filepath.IsAbs(c.Build.Output) {
			return filepath.Join(filepath.Dir(c.Path), c.Build.Output)
		}
		return c.Build.Output
	}
	base := strings.TrimSuffix(source, filepath.Ext(source))
	switch emit {
	case EmitArtifact:
		return base + ".pyc"
	case EmitWasm:
		return base + ".wasm"
	}
	return base + ".wat"
}
