// Package cmd defines the CLI surface of the agent.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worms-agent",
	Short: "Conversational research agent for the WoRMS marine species registry",
	Long: `worms-agent answers natural-language questions about marine species
using the WoRMS (World Register of Marine Species) REST API. It classifies
each request, resolves species names to AphiaIDs, calls the relevant
endpoints at most once per distinct input, and replies with a summary plus
machine-readable artifacts referencing the raw data.

Running worms-agent without a subcommand starts the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
