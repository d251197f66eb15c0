// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/proyecta/proyecta/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigFile prefers the --config flag, then falls back to the
// XDG config location when a file exists there.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	return xdg.ConfigFile()
}

// NewRootCmd creates the root command for the Proyecta CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proyecta",
		Short: "Proyecta - academic project supervision service",
		Long: `Proyecta manages tutor, student and role accounts and the
assignment of supervised projects, exposing a role-gated JSON API.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
