package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server health and resource counts for the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Healthz(); err != nil {
				color.Red("server %s: unreachable (%v)", serverAddr, err)
				return err
			}
			color.Green("server %s: ok", serverAddr)
			fmt.Printf("project: %s\n\n", project)

			agents, err := apiClient.ListAgents()
			if err != nil {
				return err
			}
			tasks, err := apiClient.ListTasks()
			if err != nil {
				return err
			}
			threads, err := apiClient.ListThreads()
			if err != nil {
				return err
			}
			documents, err := apiClient.ListDocuments()
			if err != nil {
				return err
			}

			openTasks := 0
			for _, t := range tasks {
				if !t.Status.Completed {
					openTasks++
				}
			}
			indexed := 0
			for _, d := range documents {
				if d.Status.Phase == v1alpha1.DocIndexed {
					indexed++
				}
			}

			printTable([]string{"RESOURCE", "COUNT", "DETAIL"}, [][]string{
				{"agents", fmt.Sprintf("%d", len(agents)), ""},
				{"tasks", fmt.Sprintf("%d", len(tasks)), fmt.Sprintf("%d open", openTasks)},
				{"threads", fmt.Sprintf("%d", len(threads)), ""},
				{"documents", fmt.Sprintf("%d", len(documents)), fmt.Sprintf("%d indexed", indexed)},
			})
			return nil
		},
	}
	return cmd
}
