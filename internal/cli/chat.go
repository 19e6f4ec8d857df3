package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newChatCmd() *cobra.Command {
	var (
		threadName string
		agentName  string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an agent",
		Long: `Start an interactive chat session in a thread. The agent can use
its tools (task management, document search, web search) during the
conversation.

In-session commands:
  /tasks   show the current task table
  /quit    leave the session`,
		Example: `  skua chat
  skua chat --agent task-manager
  skua chat --thread chat-a1b2c3d4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if threadName == "" {
				threadName = "chat-" + uuid.NewString()[:8]
				_, err := apiClient.CreateThread(&v1alpha1.Thread{
					Metadata: v1alpha1.ObjectMeta{Name: threadName, Project: project},
					Spec:     v1alpha1.ThreadSpec{Agent: agentName},
				})
				if err != nil {
					return fmt.Errorf("creating thread: %w", err)
				}
			} else if _, err := apiClient.GetThread(threadName); err != nil {
				return fmt.Errorf("thread %s: %w", threadName, err)
			}

			header := color.New(color.FgCyan, color.Bold)
			header.Printf("Chatting in thread %s", threadName)
			fmt.Println("  (/tasks shows tasks, /quit exits)")
			fmt.Println()

			return chatREPL(threadName)
		},
	}

	cmd.Flags().StringVar(&threadName, "thread", "", "Thread to resume (default: new thread)")
	cmd.Flags().StringVar(&agentName, "agent", "", "Agent profile for new threads")

	return cmd
}

func chatREPL(threadName string) error {
	prompt := color.New(color.FgGreen, color.Bold)
	assistant := color.New(color.FgCyan)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/tasks":
			if err := printTaskTable(); err != nil {
				color.Red("error: %v", err)
			}
			continue
		}

		messages, err := apiClient.SendMessage(threadName, line)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}
		for _, msg := range messages {
			if msg.Role == v1alpha1.RoleAssistant {
				assistant.Println(msg.Content)
			}
		}
		fmt.Println()
	}
}

// printTaskTable renders the project's tasks as a colored table.
func printTaskTable() error {
	tasks, err := apiClient.ListTasks()
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	done := color.New(color.FgGreen).SprintFunc()
	open := color.New(color.FgYellow).SprintFunc()

	var rows [][]string
	for _, task := range tasks {
		state := open("open")
		if task.Status.Completed {
			state = done("done")
		}
		rows = append(rows, []string{
			task.Metadata.Name,
			truncate(task.Spec.Title, 40),
			task.Spec.Category,
			task.Spec.Priority,
			task.Spec.DueDate,
			state,
		})
	}
	printTable([]string{"NAME", "TITLE", "CATEGORY", "PRIORITY", "DUE", "STATE"}, rows)
	return nil
}
