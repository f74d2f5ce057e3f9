package main

import (
	"github.com/spf13/cobra"

	"blockfix/internal/driver"
)

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair [flags] [file|directory...]",
		Short: "Insert missing closing lines and fix misnested siblings",
		Long: `Scan each target, repair unclosed and misnested describe/it blocks, apply
the [[rename]] pairs from blockfix.toml, and write the result back. A file is
only written when the repaired text re-scans as balanced; ambiguous files are
reported and left untouched. Without arguments the [targets] section of
blockfix.toml is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, driver.ModeRepair, nil)
		},
	}
	addBatchFlags(cmd, true)
	return cmd
}
