package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"blockfix/internal/driver"
	"blockfix/internal/rename"
)

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename [flags] [file|directory...]",
		Short: "Rewrite dotted field paths",
		Long: `Rewrite field paths such as response.body.location to a new name. An
occurrence is only rewritten when it is not part of a longer identifier, so
response.body.locationId is left alone. Pairs come from repeated --from/--to
flags, or from the [[rename]] section of blockfix.toml. Block structure is
not touched.`,
		RunE: runRename,
	}
	cmd.Flags().StringArray("from", nil, "field path to replace (repeatable, paired with --to)")
	cmd.Flags().StringArray("to", nil, "replacement field path (repeatable, paired with --from)")
	addBatchFlags(cmd, true)
	return cmd
}

func runRename(cmd *cobra.Command, args []string) error {
	pairs, err := readPairs(cmd)
	if err != nil {
		return err
	}
	if pairs == nil {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(cfg.Rename) == 0 {
			return errors.New("rename: no pairs: pass --from/--to or add [[rename]] to blockfix.toml")
		}
	}
	return runBatch(cmd, args, driver.ModeRename, pairs)
}

// readPairs returns nil when neither --from nor --to is given.
func readPairs(cmd *cobra.Command) ([]rename.Pair, error) {
	from, err := cmd.Flags().GetStringArray("from")
	if err != nil {
		return nil, err
	}
	to, err := cmd.Flags().GetStringArray("to")
	if err != nil {
		return nil, err
	}
	if len(from) == 0 && len(to) == 0 {
		return nil, nil
	}
	if len(from) != len(to) {
		return nil, fmt.Errorf("rename: %d --from values but %d --to values", len(from), len(to))
	}
	pairs := make([]rename.Pair, len(from))
	for i := range from {
		pairs[i] = rename.Pair{From: from[i], To: to[i]}
	}
	if err := rename.Validate(pairs); err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	return pairs, nil
}
