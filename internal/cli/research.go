package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/tools"
)

const researchSystemPrompt = `You are a research assistant. Use web_search to find relevant sources
and fetch_page to read the most promising ones. Gather facts from more
than one source when possible, then write up what you found with the
source URLs.`

const summarizePrompt = `Summarize the following research findings into a concise report with a
short headline, 3-6 bullet points and a list of source URLs.

Findings:
%s`

func newResearchCmd() *cobra.Command {
	var (
		maxCalls  int
		noSummary bool
	)

	cmd := &cobra.Command{
		Use:   "research <topic>",
		Short: "Research a topic on the web and summarize the findings",
		Long: `Run a local research agent: it searches the web, reads pages and
produces a summarized report. Requires TAVILY_API_KEY for search and
an OpenAI-compatible endpoint for the agent loop.`,
		Example: `  skua research "zig comptime metaprogramming"
  skua research --max-calls 12 "history of the v8 garbage collector"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			gateway, err := buildGateway(cfg, logger)
			if err != nil {
				return err
			}

			registry := runtime.NewRegistry()
			searcher := tools.NewTavilyClient(cfg.Search.BaseURL, cfg.SearchAPIKey(), logger)
			if err := registry.RegisterAll(
				tools.NewWebSearchTool(searcher, cfg.Search.MaxResults).Entry(),
				tools.NewFetchTool(logger).Entry(),
			); err != nil {
				return err
			}

			if maxCalls <= 0 {
				maxCalls = cfg.Agent.MaxLoopCalls
			}
			loop := runtime.NewLoop(gateway, registry, runtime.LoopConfig{
				System:   researchSystemPrompt,
				MaxCalls: maxCalls,
			}, logger)

			status := color.New(color.Faint)
			status.Printf("researching %q...\n\n", topic)

			session := runtime.NewSession()
			if err := loop.RunTurn(cmd.Context(), session, topic); err != nil {
				return err
			}
			findings := session.Last().Content

			if noSummary {
				fmt.Println(findings)
				return nil
			}

			completer, err := buildCompleter(cfg, logger)
			if err != nil {
				return err
			}
			report, err := completer.Complete(cmd.Context(), fmt.Sprintf(summarizePrompt, findings))
			if err != nil {
				return fmt.Errorf("summarizing findings: %w", err)
			}
			fmt.Println(strings.TrimSpace(report))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxCalls, "max-calls", 0, "Model call budget for the research loop")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "Print raw findings without the summarize pass")

	return cmd
}
