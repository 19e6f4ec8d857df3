// Package cli implements the skua command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skua-dev/skua/internal/config"
	"github.com/skua-dev/skua/internal/llm"
	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/pkg/client"
)

var (
	serverAddr string
	project    string
	configPath string
	apiClient  *client.Client
)

// NewRootCmd creates the top-level skua CLI command with all
// subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skua",
		Short: "Tool-calling agents over a resource store",
		Long: `Skua runs tool-calling LLM agents: a task manager, a grounded
document-answering service, a web research agent, a document drafter
and threaded chat, all backed by declarative resources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Local commands never talk to the API server.
			switch cmd.Name() {
			case "serve", "init", "research", "draft":
				return
			}
			apiClient = client.New(serverAddr, project)
		},
	}

	cmd.PersistentFlags().StringVar(&serverAddr, "server", "http://127.0.0.1:7311", "Skua server address")
	cmd.PersistentFlags().StringVarP(&project, "project", "p", "default", "Project name")
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")

	cmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newAskCmd(),
		newResearchCmd(),
		newDraftCmd(),
		newIngestCmd(),
		newApplyCmd(),
		newGetCmd(),
		newDescribeCmd(),
		newDeleteCmd(),
		newHistoryCmd(),
		newStatusCmd(),
		newInitCmd(),
		newUICmd(),
	)

	return cmd
}

// loadConfig reads the config file, applying the project override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if project != "" {
		cfg.Agent.Project = project
	}
	return cfg, nil
}

// newLogger builds a zap logger per the config's log section.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// buildGateway creates the tool-calling model backend. Only the openai
// provider supports tool calls.
func buildGateway(cfg *config.Config, logger *zap.Logger) (runtime.Gateway, error) {
	if cfg.LLM.Provider != "openai" {
		return nil, fmt.Errorf("provider %q does not support tool calling; set llm.provider to openai", cfg.LLM.Provider)
	}
	return newOpenAIClient(cfg, logger), nil
}

// buildCompleter creates the plain prompt-to-text backend for the
// configured provider.
func buildCompleter(cfg *config.Config, logger *zap.Logger) (llm.Completer, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return newOpenAIClient(cfg, logger), nil
	case "claude-cli":
		return llm.NewClaudeCLI(cfg.LLM.ClaudeCLI, cfg.LLM.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) *llm.OpenAIClient {
	return llm.NewOpenAIClient(llm.OpenAIOptions{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLMAPIKey(),
		Model:       cfg.LLM.Model,
		EmbedModel:  cfg.LLM.EmbedModel,
		Temperature: cfg.LLM.Temperature,
	}, logger)
}
