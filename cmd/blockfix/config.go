package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blockfix/internal/logging"
	"blockfix/internal/project"
)

// loadConfig resolves --config or searches for blockfix.toml upwards from
// the working directory. Without a manifest the defaults apply and the
// returned manifest is nil.
func loadConfig(cmd *cobra.Command) (*project.Manifest, project.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, project.Config{}, err
	}
	if path != "" {
		m, err := project.LoadFile(path)
		if err != nil {
			return nil, project.Config{}, err
		}
		logging.L().Debug("config loaded", zap.String("path", m.Path))
		return m, m.Config, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, project.Config{}, err
	}
	m, ok, err := project.Load(wd)
	if err != nil {
		return nil, project.Config{}, fmt.Errorf("load %s: %w", project.ManifestName, err)
	}
	if !ok {
		logging.L().Debug("no manifest, using defaults")
		return nil, project.Default(), nil
	}
	logging.L().Debug("config loaded", zap.String("path", m.Path))
	return m, m.Config, nil
}
