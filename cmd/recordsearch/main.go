/*
Package main is the entry point for the recordsearch CLI.

recordsearch indexes short activity records (workouts, study sessions,
moods, notes, ...) and serves text search, suggestions, structured filters
and aggregate statistics over them.

Usage:

	recordsearch [command]

Available Commands:

	serve       Run the HTTP API
	search      Run one search against the configured store and print JSON
	suggest     Print term completions for a prefix
	migrate     Create the Postgres schema

Examples:

	recordsearch serve --config configs/development.yaml
	recordsearch search "morning run" --limit 5
	recordsearch suggest lea
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "recordsearch",
		Short:         "Full-text search and filtering over activity records",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/development.yaml", "path to config file")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newSearchCmd(&configPath))
	rootCmd.AddCommand(newSuggestCmd(&configPath))
	rootCmd.AddCommand(newMigrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
