package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tyck/internal/config"
	"tyck/internal/diagfmt"
	"tyck/internal/driver"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <program.yaml|directory>...",
	Short: "Print resolved classes, ancestors and type members",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("members", false, "list methods and fields of each class")
	dumpCmd.Flags().Bool("singletons", false, "include singleton classes")
	dumpCmd.Flags().Bool("requires-ancestor", false, "enable requires_ancestor processing for every program")
	dumpCmd.Flags().Bool("no-validate", false, "skip the sanity check after resolution")
	dumpCmd.Flags().Bool("cache", false, "reuse results of unchanged programs")
	dumpCmd.Flags().Int("jobs", 0, "max parallel workers for reading programs (0=auto)")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, opts, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	members, err := cmd.Flags().GetBool("members")
	if err != nil {
		return fmt.Errorf("failed to get members flag: %w", err)
	}
	singletons, err := cmd.Flags().GetBool("singletons")
	if err != nil {
		return fmt.Errorf("failed to get singletons flag: %w", err)
	}

	result, err := driver.Resolve(cmd.Context(), args, opts)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	if err := diagfmt.Dump(os.Stdout, result.Snapshots(), diagfmt.DumpOpts{
		Color:      useColor(cfg, os.Stdout),
		Members:    members,
		Singletons: singletons,
	}); err != nil {
		return err
	}
	// диагностика уходит в stderr, чтобы не мешать дампу
	if result.Bag.Len() > 0 {
		if err := printDiagnostics(os.Stderr, result, config.FormatShort, diagfmt.PathModeAuto, false, false); err != nil {
			return err
		}
	}
	if result.HasErrors() {
		return errDiagnostics
	}
	return nil
}
