package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skua-dev/skua/internal/tui"
)

func newUICmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"tui"},
		Short:   "Launch the interactive chat terminal UI",
		Long:    "Launch a full-screen terminal UI with a thread list, the conversation transcript, and an input field.",
		Example: `  skua ui
  skua ui --agent researcher`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := tui.NewApp(serverAddr, project, agent)
			if err := app.Run(); err != nil {
				return fmt.Errorf("UI error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Agent profile for new threads")
	return cmd
}
