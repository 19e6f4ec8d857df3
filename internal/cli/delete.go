package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <resource-type> <name> [name...]",
		Short: "Delete one or more resources",
		Example: `  skua delete task task-9f3a12bc
  skua delete thread chat-0a1b2c3d chat-4e5f6a7b`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := normalizeResourceType(args[0])
			for _, name := range args[1:] {
				var err error
				switch kind {
				case "agents":
					err = apiClient.DeleteAgent(name)
				case "tasks":
					err = apiClient.DeleteTask(name)
				case "threads":
					err = apiClient.DeleteThread(name)
				case "documents":
					err = apiClient.DeleteDocument(name)
				default:
					return fmt.Errorf("unknown resource type %q", args[0])
				}
				if err != nil {
					return fmt.Errorf("deleting %s: %w", name, err)
				}
				fmt.Printf("%s %q deleted\n", kind[:len(kind)-1], name)
			}
			return nil
		},
	}
	return cmd
}
