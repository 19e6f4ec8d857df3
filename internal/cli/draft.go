package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/tools"
)

const draftSystemPrompt = `You are a writing assistant working on a single draft document.

Rules:
- After every user request that changes the text, call update_document
  with the COMPLETE new document content.
- When the user asks to save or finish, call save_document.
- Keep your replies short; the document itself carries the work.`

func newDraftCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Interactively draft a document with an agent",
		Long: `Start a drafting session. Describe what you want and the agent
maintains the draft through its editing tools; ask it to save when you
are happy with the text.

In-session commands:
  /show    print the current draft
  /quit    leave the session`,
		Example: `  skua draft --file letter.md
  skua draft --file notes/meeting.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			draft := tools.NewDraft(filePath)
			registry := runtime.NewRegistry()
			if err := registry.RegisterAll(tools.NewDraftTools(draft, logger).Entries()...); err != nil {
				return err
			}

			loop := runtime.NewLoop(gateway, registry, runtime.LoopConfig{
				System:   draftSystemPrompt,
				MaxCalls: cfg.Agent.MaxLoopCalls,
			}, logger)

			header := color.New(color.FgCyan, color.Bold)
			header.Printf("Drafting %s", filePath)
			fmt.Println("  (/show prints the draft, /quit exits)")
			fmt.Println()

			return draftREPL(cmd, loop, draft)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "draft.md", "Where save_document writes the draft")

	return cmd
}

func draftREPL(cmd *cobra.Command, loop *runtime.Loop, draft *tools.Draft) error {
	prompt := color.New(color.FgGreen, color.Bold)
	assistant := color.New(color.FgCyan)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	session := runtime.NewSession()
	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			if !draft.Saved() && draft.Content() != "" {
				color.Yellow("draft has unsaved changes (ask the agent to save, or /quit again)")
				if scanner.Scan() && strings.TrimSpace(scanner.Text()) == "/quit" {
					return nil
				}
				continue
			}
			return nil
		case "/show":
			if draft.Content() == "" {
				fmt.Println("(empty draft)")
			} else {
				fmt.Println(draft.Content())
			}
			continue
		}

		if err := loop.RunTurn(cmd.Context(), session, line); err != nil {
			color.Red("error: %v", err)
			continue
		}
		assistant.Println(session.Last().Content)
		fmt.Println()
	}
	return scanner.Err()
}
