// Package session assembles the agent runtime for one deployment: the
// tool catalog, per-agent loops, thread turns and grounded document
// queries.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/config"
	"github.com/skua-dev/skua/internal/llm"
	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/store"
	"github.com/skua-dev/skua/internal/tools"
	"github.com/skua-dev/skua/internal/vector"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// NoAnswer is returned by Answer when retrieval finds nothing to ground
// a response on.
const NoAnswer = "I don't know based on the provided documents."

// groundedPrompt forces the answer to stay within the retrieved
// passages.
const groundedPrompt = `Answer the question using ONLY the context below. If the context does not contain the answer, say exactly: %q

Context:
%s

Question: %s`

// Engine owns the tool catalog and runs agent turns against the store.
type Engine struct {
	store     store.Store
	gateway   runtime.Gateway
	completer llm.Completer
	index     *vector.Index
	cfg       *config.Config
	catalog   map[string]runtime.Entry
	logger    *zap.Logger
}

// NewEngine builds the engine and its full tool catalog.
func NewEngine(s store.Store, gateway runtime.Gateway, completer llm.Completer, index *vector.Index, cfg *config.Config, logger *zap.Logger) *Engine {
	e := &Engine{
		store:     s,
		gateway:   gateway,
		completer: completer,
		index:     index,
		cfg:       cfg,
		catalog:   make(map[string]runtime.Entry),
		logger:    logger,
	}

	project := cfg.Agent.Project
	for _, entry := range tools.NewTaskTools(s, project, logger).Entries() {
		e.catalog[entry.Name] = entry
	}
	retrieval := tools.NewRetrievalTool(index, project, cfg.Agent.RetrievalTopK, logger)
	e.catalog[retrieval.Entry().Name] = retrieval.Entry()

	searcher := tools.NewTavilyClient(cfg.Search.BaseURL, cfg.SearchAPIKey(), logger)
	web := tools.NewWebSearchTool(searcher, cfg.Search.MaxResults)
	e.catalog[web.Entry().Name] = web.Entry()

	fetch := tools.NewFetchTool(logger)
	e.catalog[fetch.Entry().Name] = fetch.Entry()

	return e
}

// ToolNames lists every tool in the catalog.
func (e *Engine) ToolNames() []string {
	names := make([]string, 0, len(e.catalog))
	for name := range e.catalog {
		names = append(names, name)
	}
	return names
}

// Registry builds a registry holding the named tools. An empty list
// selects the whole catalog.
func (e *Engine) Registry(names []string) (*runtime.Registry, error) {
	reg := runtime.NewRegistry()
	if len(names) == 0 {
		for _, entry := range e.catalog {
			if err := reg.Register(entry); err != nil {
				return nil, err
			}
		}
		return reg, nil
	}
	for _, name := range names {
		entry, ok := e.catalog[name]
		if !ok {
			return nil, fmt.Errorf("agent references unknown tool %q", name)
		}
		if err := reg.Register(entry); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoopFor builds the control loop for an agent profile. When the
// profile names its own model or temperature and the gateway supports
// per-call model selection, the loop generates with those instead of
// the configured defaults.
func (e *Engine) LoopFor(agent *v1alpha1.Agent) (*runtime.Loop, error) {
	reg, err := e.Registry(agent.Spec.Tools)
	if err != nil {
		return nil, err
	}
	maxCalls := agent.Spec.MaxLoopCalls
	if maxCalls <= 0 {
		maxCalls = e.cfg.Agent.MaxLoopCalls
	}

	gateway := e.gateway
	if agent.Spec.Model != "" || agent.Spec.Temperature > 0 {
		if sel, ok := gateway.(llm.ModelSelector); ok {
			gateway = sel.WithModel(agent.Spec.Model, agent.Spec.Temperature)
		} else {
			e.logger.Warn("gateway cannot select models per agent",
				zap.String("agent", agent.Metadata.Name),
				zap.String("model", agent.Spec.Model),
			)
		}
	}

	return runtime.NewLoop(gateway, reg, runtime.LoopConfig{
		System:   agent.Spec.SystemPrompt,
		MaxCalls: maxCalls,
	}, e.logger), nil
}

// resolveAgent loads the named agent profile, or a permissive default
// when the name is empty or the profile does not exist.
func (e *Engine) resolveAgent(project, name string) *v1alpha1.Agent {
	if name != "" {
		var agent v1alpha1.Agent
		key := store.ResourceKey(v1alpha1.KindAgent, project, name)
		if err := e.store.Get(key, &agent); err == nil {
			return &agent
		}
		e.logger.Warn("agent profile not found, using defaults",
			zap.String("agent", name),
			zap.String("project", project),
		)
	}
	return &v1alpha1.Agent{
		TypeMeta: v1alpha1.TypeMeta{APIVersion: v1alpha1.APIVersion, Kind: v1alpha1.KindAgent},
		Metadata: v1alpha1.ObjectMeta{Name: "default", Project: project},
		Spec: v1alpha1.AgentSpec{
			SystemPrompt: "You are a helpful assistant. Use the available tools when they help answer the user.",
			MaxLoopCalls: e.cfg.Agent.MaxLoopCalls,
		},
	}
}

// RunThreadTurn runs one loop turn inside a stored thread: the prior
// transcript seeds the session, the loop runs, and the new user and
// assistant messages are appended to the thread. It returns the
// appended messages.
func (e *Engine) RunThreadTurn(ctx context.Context, project, threadName, input string) ([]v1alpha1.ThreadMessage, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	key := store.ResourceKey(v1alpha1.KindThread, project, threadName)
	var thread v1alpha1.Thread
	if err := e.store.Get(key, &thread); err != nil {
		return nil, fmt.Errorf("loading thread %s: %w", threadName, err)
	}

	agent := e.resolveAgent(project, thread.Spec.Agent)
	loop, err := e.LoopFor(agent)
	if err != nil {
		return nil, err
	}

	session := runtime.NewSession()
	seedSession(session, thread.Status.Messages, e.cfg.Agent.ContextTurns)

	if err := loop.RunTurn(ctx, session, input); err != nil {
		return nil, err
	}

	final := session.Last()
	if final.Role != runtime.RoleAssistant {
		return nil, fmt.Errorf("turn produced no assistant reply")
	}

	now := time.Now()
	appended := []v1alpha1.ThreadMessage{
		{Role: v1alpha1.RoleUser, Content: input, Timestamp: now},
		{Role: v1alpha1.RoleAssistant, Content: final.Content, Timestamp: time.Now()},
	}
	thread.Status.Messages = append(thread.Status.Messages, appended...)
	thread.Metadata.UpdatedAt = time.Now()
	if err := e.store.Update(key, thread); err != nil {
		return nil, fmt.Errorf("persisting thread %s: %w", threadName, err)
	}

	e.logger.Info("thread turn completed",
		zap.String("thread", threadName),
		zap.String("agent", agent.Metadata.Name),
		zap.Int("calls", session.Calls),
	)
	return appended, nil
}

// seedSession replays the persisted transcript into a fresh session,
// bounded to the most recent maxTurns user/assistant messages.
func seedSession(session *runtime.Session, messages []v1alpha1.ThreadMessage, maxTurns int) {
	start := 0
	if maxTurns > 0 && len(messages) > maxTurns {
		start = len(messages) - maxTurns
	}
	for _, msg := range messages[start:] {
		switch msg.Role {
		case v1alpha1.RoleUser:
			session.History = append(session.History, runtime.Message{
				Role: runtime.RoleUser, Content: msg.Content, Timestamp: msg.Timestamp,
			})
		case v1alpha1.RoleAssistant:
			session.History = append(session.History, runtime.Message{
				Role: runtime.RoleAssistant, Content: msg.Content, Timestamp: msg.Timestamp,
			})
		}
	}
}

// Answer runs a grounded document query: retrieve top-k passages, then
// complete with a context-only prompt. An empty retrieval returns
// NoAnswer without calling the model.
func (e *Engine) Answer(ctx context.Context, project, query string) (string, []vector.Result, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil, fmt.Errorf("query must not be empty")
	}

	results, err := e.index.Search(ctx, project, query, e.cfg.Agent.RetrievalTopK)
	if err != nil {
		return "", nil, fmt.Errorf("retrieving context: %w", err)
	}
	if len(results) == 0 {
		return NoAnswer, nil, nil
	}

	var contextBlock strings.Builder
	for i, res := range results {
		fmt.Fprintf(&contextBlock, "[%d] (%s) %s\n", i+1, res.Document, res.Text)
	}

	answer, err := e.completer.Complete(ctx, fmt.Sprintf(groundedPrompt, NoAnswer, contextBlock.String(), query))
	if err != nil {
		return "", nil, fmt.Errorf("generating answer: %w", err)
	}
	return strings.TrimSpace(answer), results, nil
}
