// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the dbdock CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbdock",
		Short: "dbdock - authentication and database provisioning service",
		Long: `dbdock serves a REST API for account management, session-based
authentication and on-demand MariaDB container provisioning.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}
