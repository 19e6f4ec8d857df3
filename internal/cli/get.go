package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <resource-type> [name]",
		Short: "List or get resources",
		Long: `Display one or many resources.

Resource types: agents, tasks, threads, documents`,
		Example: `  skua get tasks
  skua get agents task-manager
  skua get documents -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 1 {
				name = args[1]
			}

			switch normalizeResourceType(args[0]) {
			case "agents":
				return getAgents(name)
			case "tasks":
				return getTasks(name)
			case "threads":
				return getThreads(name)
			case "documents":
				return getDocuments(name)
			default:
				return fmt.Errorf("unknown resource type %q. Valid types: agents, tasks, threads, documents", args[0])
			}
		},
	}
	return cmd
}

// normalizeResourceType maps aliases to canonical resource type names.
func normalizeResourceType(t string) string {
	switch strings.ToLower(t) {
	case "agent", "agents":
		return "agents"
	case "task", "tasks":
		return "tasks"
	case "thread", "threads", "chat", "chats":
		return "threads"
	case "document", "documents", "doc", "docs":
		return "documents"
	default:
		return strings.ToLower(t)
	}
}

func agentHeaders() []string {
	return []string{"NAME", "DESCRIPTION", "MODEL", "TOOLS", "MAX CALLS", "AGE"}
}

func agentToRow(item interface{}) []string {
	a := item.(*v1alpha1.Agent)
	return []string{
		a.Metadata.Name,
		truncate(a.Spec.Description, 40),
		a.Spec.Model,
		strconv.Itoa(len(a.Spec.Tools)),
		strconv.Itoa(a.Spec.MaxLoopCalls),
		formatAge(a.Metadata.CreatedAt),
	}
}

func getAgents(name string) error {
	if name != "" {
		agent, err := apiClient.GetAgent(name)
		if err != nil {
			return err
		}
		return printOutput(agent, agentHeaders(), agentToRow)
	}
	agents, err := apiClient.ListAgents()
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agents found.")
		return nil
	}
	return printOutput(toItems(agents), agentHeaders(), agentToRow)
}

func taskHeaders() []string { return []string{"NAME", "TITLE", "PRIORITY", "DUE", "COMPLETED", "AGE"} }

func taskToRow(item interface{}) []string {
	t := item.(*v1alpha1.Task)
	return []string{
		t.Metadata.Name,
		truncate(t.Spec.Title, 40),
		t.Spec.Priority,
		t.Spec.DueDate,
		strconv.FormatBool(t.Status.Completed),
		formatAge(t.Metadata.CreatedAt),
	}
}

func getTasks(name string) error {
	if name != "" {
		task, err := apiClient.GetTask(name)
		if err != nil {
			return err
		}
		return printOutput(task, taskHeaders(), taskToRow)
	}
	tasks, err := apiClient.ListTasks()
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}
	return printOutput(toItems(tasks), taskHeaders(), taskToRow)
}

func threadHeaders() []string { return []string{"NAME", "TOPIC", "AGENT", "MESSAGES", "AGE"} }

func threadToRow(item interface{}) []string {
	th := item.(*v1alpha1.Thread)
	return []string{
		th.Metadata.Name,
		truncate(th.Status.Topic, 40),
		th.Spec.Agent,
		strconv.Itoa(len(th.Status.Messages)),
		formatAge(th.Metadata.CreatedAt),
	}
}

func getThreads(name string) error {
	if name != "" {
		thread, err := apiClient.GetThread(name)
		if err != nil {
			return err
		}
		return printOutput(thread, threadHeaders(), threadToRow)
	}
	threads, err := apiClient.ListThreads()
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Println("No threads found.")
		return nil
	}
	return printOutput(toItems(threads), threadHeaders(), threadToRow)
}

func documentHeaders() []string { return []string{"NAME", "SOURCE", "PHASE", "CHUNKS", "AGE"} }

func documentToRow(item interface{}) []string {
	d := item.(*v1alpha1.Document)
	return []string{
		d.Metadata.Name,
		truncate(d.Spec.Source, 40),
		string(d.Status.Phase),
		strconv.Itoa(d.Status.Chunks),
		formatAge(d.Metadata.CreatedAt),
	}
}

func getDocuments(name string) error {
	if name != "" {
		doc, err := apiClient.GetDocument(name)
		if err != nil {
			return err
		}
		return printOutput(doc, documentHeaders(), documentToRow)
	}
	docs, err := apiClient.ListDocuments()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}
	return printOutput(toItems(docs), documentHeaders(), documentToRow)
}

// toItems converts a typed slice to []interface{} for printOutput.
func toItems[T any](in []T) []interface{} {
	items := make([]interface{}, len(in))
	for i := range in {
		items[i] = in[i]
	}
	return items
}
