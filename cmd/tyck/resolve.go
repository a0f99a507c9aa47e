package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tyck/internal/config"
	"tyck/internal/diagfmt"
	"tyck/internal/driver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <program.yaml|directory>...",
	Short: "Resolve programs and report diagnostics",
	Long: `Resolve every program description given on the command line, or every
*.yaml/*.yml file below a directory, and print the diagnostics`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("format", "", "output format (pretty|json|short), default from tyck.toml")
	resolveCmd.Flags().Bool("requires-ancestor", false, "enable requires_ancestor processing for every program")
	resolveCmd.Flags().Bool("no-validate", false, "skip the sanity check after resolution")
	resolveCmd.Flags().Bool("cache", false, "reuse results of unchanged programs")
	resolveCmd.Flags().Int("jobs", 0, "max parallel workers for reading programs (0=auto)")
	resolveCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	resolveCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// resolveSettings combines tyck.toml with the flags shared by resolve and dump.
func resolveSettings(cmd *cobra.Command) (config.Config, driver.Options, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return cfg, driver.Options{}, err
	}
	flags := cmd.Flags()

	if flags.Changed("requires-ancestor") {
		if cfg.Resolver.RequiresAncestor, err = flags.GetBool("requires-ancestor"); err != nil {
			return cfg, driver.Options{}, fmt.Errorf("failed to get requires-ancestor flag: %w", err)
		}
	}
	noValidate, err := flags.GetBool("no-validate")
	if err != nil {
		return cfg, driver.Options{}, fmt.Errorf("failed to get no-validate flag: %w", err)
	}
	if noValidate {
		cfg.Resolver.Validate = false
	}
	if flags.Changed("cache") {
		if cfg.Cache.Enabled, err = flags.GetBool("cache"); err != nil {
			return cfg, driver.Options{}, fmt.Errorf("failed to get cache flag: %w", err)
		}
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return cfg, driver.Options{}, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return cfg, driver.Options{}, fmt.Errorf("failed to get timings flag: %w", err)
	}

	cache, err := openCache(cfg)
	if err != nil {
		return cfg, driver.Options{}, err
	}
	opts := driver.Options{
		MaxDiagnostics:   cfg.Output.MaxDiagnostics,
		RequiresAncestor: cfg.Resolver.RequiresAncestor,
		Trusted:          cfg.TrustedPrefixes(),
		Validate:         cfg.Resolver.Validate,
		Jobs:             jobs,
		EnableTimings:    showTimings,
		Cache:            cache,
	}
	if cfg.Path != "" {
		opts.BaseDir = cfg.Root()
	}
	return cfg, opts, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, opts, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	format, err := flags.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format == "" {
		format = cfg.Output.Format
	}
	withNotes, err := flags.GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := flags.GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	result, err := driver.Resolve(cmd.Context(), args, opts)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	if err := printDiagnostics(os.Stdout, result, format, pathMode, withNotes, useColor(cfg, os.Stdout)); err != nil {
		return err
	}
	if result.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func printDiagnostics(w io.Writer, result *driver.Result, format string, pathMode diagfmt.PathMode, withNotes, color bool) error {
	switch format {
	case config.FormatPretty:
		return diagfmt.Pretty(w, result.Bag, result.FileSet, diagfmt.PrettyOpts{
			Color:     color,
			Context:   1,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
	case config.FormatShort:
		return diagfmt.Short(w, result.Bag, result.FileSet, diagfmt.ShortOpts{IncludeNotes: withNotes})
	case config.FormatJSON:
		if err := diagfmt.JSON(w, result.Bag, result.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
