package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tyck/internal/config"
	"tyck/internal/snapshot"
)

// loadSettings reads tyck.toml and applies the global flags that were set
// explicitly on top of it.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("color") {
		if cfg.Output.Color, err = flags.GetString("color"); err != nil {
			return config.Config{}, fmt.Errorf("failed to get color flag: %w", err)
		}
	}
	if flags.Changed("max-diagnostics") {
		if cfg.Output.MaxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return config.Config{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func useColor(cfg config.Config, f *os.File) bool {
	switch cfg.Output.Color {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	default:
		return isTerminal(f)
	}
}

// openCache returns nil when caching is disabled.
func openCache(cfg config.Config) (*snapshot.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	cache, err := snapshot.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache, nil
}
