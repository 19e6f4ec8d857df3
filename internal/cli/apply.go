package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skua-dev/skua/pkg/manifest"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newApplyCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "apply -f <manifest.yaml>",
		Short: "Apply resource manifests",
		Long:  "Create or update resources from YAML manifest files. Multi-document files are supported.",
		Example: `  skua apply -f agent.yaml
  skua apply -f agents.yaml -f docs.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(files) == 0 {
				return fmt.Errorf("at least one -f manifest file is required")
			}

			for _, file := range files {
				resources, err := manifest.ParseFile(file)
				if err != nil {
					return err
				}
				for _, res := range resources {
					if err := apiClient.Apply(res); err != nil {
						return fmt.Errorf("applying from %s: %w", file, err)
					}
					fmt.Printf("%s applied\n", resourceRef(res))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&files, "filename", "f", nil, "Manifest file to apply (repeatable)")

	return cmd
}

func resourceRef(res interface{}) string {
	switch r := res.(type) {
	case *v1alpha1.Agent:
		return "agent/" + r.Metadata.Name
	case *v1alpha1.Task:
		return "task/" + r.Metadata.Name
	case *v1alpha1.Thread:
		return "thread/" + r.Metadata.Name
	case *v1alpha1.Document:
		return "document/" + r.Metadata.Name
	default:
		return strings.ToLower(fmt.Sprintf("%T", res))
	}
}
