package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rijul21/worms-agent/internal/app"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive research session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	host := a.NewConsoleHost(os.Stdout)

	fmt.Println("worms-agent interactive session. Ask about marine species; type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch {
		case query == "":
			continue
		case query == "exit" || query == "quit":
			return nil
		}

		if err := a.Orchestrator.Run(ctx, host, query); err != nil {
			// A failed request should not end the session.
			fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
