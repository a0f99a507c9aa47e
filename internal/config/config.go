// Package config loads tyck.toml, the per-project settings file. The file
// is found by walking up from the working directory; every field has a
// default so a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the settings file.
const FileName = "tyck.toml"

// Output formats.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatShort  = "short"
)

// Color modes.
const (
	ColorAuto = "auto"
	ColorOn   = "on"
	ColorOff  = "off"
)

// Config is the decoded settings file.
type Config struct {
	Resolver Resolver `toml:"resolver"`
	Output   Output   `toml:"output"`
	Cache    Cache    `toml:"cache"`

	// Path is the file the settings were read from; empty for defaults.
	Path string `toml:"-"`
}

type Resolver struct {
	RequiresAncestor bool     `toml:"requires_ancestor"`
	Validate         bool     `toml:"validate"`
	TrustedPaths     []string `toml:"trusted_paths"`
}

type Output struct {
	Format         string `toml:"format"`
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Resolver: Resolver{Validate: true},
		Output: Output{
			Format:         FormatPretty,
			Color:          ColorAuto,
			MaxDiagnostics: 1000,
		},
	}
}

// Root returns the directory holding the settings file, or "" for defaults.
func (c Config) Root() string {
	if c.Path == "" {
		return ""
	}
	return filepath.Dir(c.Path)
}

// Find walks up from startDir to locate tyck.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the settings file above startDir. Without one it
// returns Default().
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes the settings file at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Output.Format {
	case FormatPretty, FormatJSON, FormatShort:
	default:
		return fmt.Errorf("invalid [output].format %q: want pretty, json or short", c.Output.Format)
	}
	switch c.Output.Color {
	case ColorAuto, ColorOn, ColorOff:
	default:
		return fmt.Errorf("invalid [output].color %q: want auto, on or off", c.Output.Color)
	}
	if c.Output.MaxDiagnostics < 0 {
		return fmt.Errorf("invalid [output].max_diagnostics %d: must not be negative", c.Output.MaxDiagnostics)
	}
	return nil
}

// TrustedPrefixes returns the trusted paths as slash-separated prefixes.
// They are matched against program file paths as written, so they are not
// anchored to the settings file.
func (c Config) TrustedPrefixes() []string {
	out := make([]string, 0, len(c.Resolver.TrustedPaths))
	for _, p := range c.Resolver.TrustedPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		trailing := strings.HasSuffix(p, "/")
		p = filepath.ToSlash(filepath.Clean(p))
		if trailing && p != "/" {
			p += "/"
		}
		out = append(out, p)
	}
	return out
}

// CacheDir returns the snapshot cache directory. An empty [cache].dir means
// the user cache directory.
func (c Config) CacheDir() (string, error) {
	if dir := strings.TrimSpace(c.Cache.Dir); dir != "" {
		if !filepath.IsAbs(dir) && c.Root() != "" {
			dir = filepath.Join(c.Root(), dir)
		}
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return filepath.Join(base, "tyck"), nil
}
