// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/routine-tui/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCmd(e), newConfigPathCmd(e), newConfigInitCmd(e))
	return cmd
}

func newConfigShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets redacted)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), e.cfg.String())
			return nil
		},
	}
}

func newConfigPathCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short:       "Print the configuration file path",
		Args:        noArgs,
		Annotations: map[string]string{annotationMissingConfigOK: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := e.configPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCmd(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short:       "Write a default configuration file",
		Args:        noArgs,
		Annotations: map[string]string{annotationMissingConfigOK: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := e.configPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return newUsageError("config", path, "already exists", "routine config init --force")
			}
			if e.opts.ConfigPath == "" {
				if err := config.EnsureConfigDir(); err != nil {
					return &ConfigError{Path: path, Err: err}
				}
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// configPath is --config when given, else the default TOML location.
func (e *env) configPath() (string, error) {
	if e.opts.ConfigPath != "" {
		return e.opts.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}
