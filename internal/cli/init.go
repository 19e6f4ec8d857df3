package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skua-dev/skua/internal/config"
)

const agentTemplate = `apiVersion: skua.dev/v1alpha1
kind: Agent
metadata:
  name: assistant
  project: %s
spec:
  description: "General-purpose assistant with task management"
  systemPrompt: |
    You are a helpful personal assistant. Use your tools to manage the
    user's tasks and answer questions from their documents. When you are
    unsure, say so instead of guessing.
  tools:
    - add_task
    - list_tasks
    - complete_task
    - delete_task
    - search_tasks
    - search_docs
---
apiVersion: skua.dev/v1alpha1
kind: Agent
metadata:
  name: researcher
  project: %s
spec:
  description: "Web research agent"
  systemPrompt: |
    You are a research assistant. Search the web and read pages to
    answer questions, then cite the pages you used.
  tools:
    - web_search
    - fetch_page
  maxLoopCalls: 12
`

func newInitCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Write the default config file and a starter agent manifest",
		Long: `Create ~/.skua/config.yaml with default settings (if it does not
exist yet) and a starter manifest with two agent profiles you can
customize and apply with 'skua apply -f'.`,
		Example: `  skua init
  skua init myproject
  skua init myproject --output-file agents.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectName := "default"
			if len(args) > 0 {
				projectName = args[0]
			}

			cfgPath := configPath
			if cfgPath == "" {
				cfgPath = config.DefaultPath()
			}
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				cfg := config.DefaultConfig()
				cfg.Agent.Project = projectName
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("encoding config: %w", err)
				}
				if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
					return fmt.Errorf("creating config directory: %w", err)
				}
				if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
					return fmt.Errorf("writing config file: %w", err)
				}
				fmt.Printf("  Config:   %s\n", cfgPath)
			} else {
				fmt.Printf("  Config:   %s (already exists, left untouched)\n", cfgPath)
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			outputPath := filepath.Join(cwd, outputFile)
			if _, err := os.Stat(outputPath); err == nil {
				return fmt.Errorf("file %s already exists. Use a different name with --output-file", outputFile)
			}
			content := fmt.Sprintf(agentTemplate, projectName, projectName)
			if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing manifest file: %w", err)
			}

			bold := color.New(color.FgCyan, color.Bold)
			bold.Println("Skua initialized!")
			fmt.Println()
			fmt.Printf("  Manifest: %s\n", outputPath)
			fmt.Printf("  Project:  %s\n", projectName)
			fmt.Println()

			color.New(color.Bold).Println("Next steps:")
			fmt.Println("  1. Export your API keys:")
			fmt.Println("     export OPENAI_API_KEY=...")
			fmt.Println("     export TAVILY_API_KEY=...   # optional, for web search")
			fmt.Println()
			fmt.Println("  2. Start the daemon (if not running):")
			fmt.Println("     skua serve")
			fmt.Println()
			fmt.Println("  3. Apply the agent profiles:")
			fmt.Printf("     skua apply -f %s\n", outputFile)
			fmt.Println()
			fmt.Println("  4. Ingest some documents and ask about them:")
			fmt.Println("     skua ingest docs/*.md")
			fmt.Println("     skua ask \"What does the handbook say about PTO?\"")
			fmt.Println()
			fmt.Println("  5. Start chatting:")
			fmt.Println("     skua chat --agent assistant")

			return nil
		},
	}

	cmd.Flags().StringVar(&outputFile, "output-file", "agents.yaml", "Output manifest filename")
	return cmd
}
