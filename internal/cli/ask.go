package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the ingested documents",
		Long: `Query the document collection. The answer is grounded in the
retrieved passages; when nothing relevant is found the agent says so
instead of guessing.`,
		Example: `  skua ask "how many vacation days do we get?"
  skua ask -p handbook "what is the remote work policy?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			answer, err := apiClient.Query(question)
			if err != nil {
				return err
			}

			fmt.Println(answer.Answer)
			if len(answer.Sources) > 0 {
				fmt.Println()
				dim := color.New(color.Faint)
				dim.Println("Sources:")
				for _, src := range answer.Sources {
					label := src.Document
					if src.Source != "" {
						label = fmt.Sprintf("%s (%s)", src.Document, src.Source)
					}
					dim.Printf("  - %s  score=%.2f\n", label, src.Score)
				}
			}
			return nil
		},
	}
	return cmd
}
