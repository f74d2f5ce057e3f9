package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"blockfix/internal/logging"
	"blockfix/internal/version"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blockfix",
		Short: "Repair unbalanced describe/it blocks in JS test files",
		Long: `blockfix scans Jest/Mocha-style test files, finds suites and tests that
were left unclosed or nested one level too deep, and inserts the missing
closing lines. Files it cannot repair with confidence are left untouched.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: setupGlobals,
		PersistentPostRun: func(*cobra.Command, []string) {
			// stderr sync errors are expected on some terminals
			_ = logging.Sync()
		},
	}

	rootCmd.SetVersionTemplate(version.Info("blockfix", false))

	// Добавляем команды
	rootCmd.AddCommand(newRepairCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file")
	rootCmd.PersistentFlags().String("config", "", "path to blockfix.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console|json)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to file")
	return rootCmd
}

// main builds the root command and executes it. Interrupts cancel the
// batch between files; any command error exits with status 1.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func setupGlobals(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	level, err := flags.GetString("log-level")
	if err != nil {
		return err
	}
	format, err := flags.GetString("log-format")
	if err != nil {
		return err
	}
	if err := logging.Init(level, format); err != nil {
		return err
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	return nil
}

// useColor reports the decision made by setupGlobals.
func useColor() bool {
	return !color.NoColor
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
