package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rijul21/worms-agent/internal/app"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and exit",
	Example: `  worms-agent ask "What are the synonyms of Orcinus orca?"
  worms-agent ask "Compare the distribution of orcas and common dolphins"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, query string) error {
	ctx := cmd.Context()

	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}

	host := a.NewConsoleHost(os.Stdout)
	if err := a.Orchestrator.Run(ctx, host, query); err != nil {
		return fmt.Errorf("processing request: %w", err)
	}
	return nil
}
