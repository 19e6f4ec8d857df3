package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newHistoryCmd() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "history <thread>",
		Short: "Print the transcript of a conversation thread",
		Example: `  skua history chat-0a1b2c3d
  skua history chat-0a1b2c3d --tail 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := apiClient.GetThread(args[0])
			if err != nil {
				return err
			}

			messages := thread.Status.Messages
			if tail > 0 && len(messages) > tail {
				messages = messages[len(messages)-tail:]
			}

			bold := color.New(color.Bold)
			bold.Printf("%s", thread.Metadata.Name)
			if thread.Status.Topic != "" {
				fmt.Printf("  (%s)", thread.Status.Topic)
			}
			fmt.Printf("  %d messages\n\n", len(thread.Status.Messages))

			userLabel := color.New(color.FgGreen, color.Bold)
			assistantLabel := color.New(color.FgCyan, color.Bold)
			faint := color.New(color.Faint)
			for _, msg := range messages {
				switch msg.Role {
				case v1alpha1.RoleUser:
					userLabel.Print("user")
				case v1alpha1.RoleAssistant:
					assistantLabel.Print("assistant")
				default:
					fmt.Print(string(msg.Role))
				}
				if !msg.Timestamp.IsZero() {
					faint.Printf("  %s", msg.Timestamp.Format("2006-01-02 15:04"))
				}
				fmt.Printf("\n%s\n\n", msg.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 0, "show only the last N messages")
	return cmd
}
