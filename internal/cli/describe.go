package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <resource-type> <name>",
		Short: "Show the full definition of a resource",
		Example: `  skua describe agent task-manager
  skua describe document handbook`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[1]

			var (
				res interface{}
				err error
			)
			switch normalizeResourceType(args[0]) {
			case "agents":
				res, err = apiClient.GetAgent(name)
			case "tasks":
				res, err = apiClient.GetTask(name)
			case "threads":
				res, err = apiClient.GetThread(name)
			case "documents":
				res, err = apiClient.GetDocument(name)
			default:
				return fmt.Errorf("unknown resource type %q", args[0])
			}
			if err != nil {
				return err
			}
			return printYAML(res)
		},
	}
	return cmd
}
