package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newIngestCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest text files as searchable documents",
		Long: `Upload one or more text files as Document resources. The server
chunks and embeds them in the background; 'skua get documents' shows
the indexing status.`,
		Example: `  skua ingest handbook.md
  skua ingest docs/*.md
  skua ingest --name policies policies.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name only applies to a single file")
			}

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				if strings.TrimSpace(string(data)) == "" {
					fmt.Printf("skipping empty file %s\n", path)
					continue
				}

				docName := name
				if docName == "" {
					docName = documentName(path)
				}

				doc := &v1alpha1.Document{
					TypeMeta: v1alpha1.TypeMeta{APIVersion: v1alpha1.APIVersion, Kind: v1alpha1.KindDocument},
					Metadata: v1alpha1.ObjectMeta{Name: docName, Project: project},
					Spec:     v1alpha1.DocumentSpec{Source: path, Content: string(data)},
				}
				if err := apiClient.Apply(doc); err != nil {
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				fmt.Printf("document/%s ingested (%d bytes)\n", docName, len(data))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Document name (default: derived from the file name)")

	return cmd
}

// documentName derives a resource name from a file path: base name
// without extension, lowercased, non-alphanumerics collapsed to dashes.
func documentName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
