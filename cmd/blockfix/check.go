package main

import (
	"github.com/spf13/cobra"

	"blockfix/internal/driver"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] [file|directory...]",
		Short: "Report files that need repair without writing",
		Long: `Run the same analysis as repair but never write. Exits with a non-zero
status when any file needs repair or cannot be repaired.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, driver.ModeCheck, nil)
		},
	}
	addBatchFlags(cmd, false)
	return cmd
}
