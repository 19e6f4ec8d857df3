package runtime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Executor runs batches of tool calls against a Registry. Its single
// job is containment: every request in a batch yields exactly one tool
// message, in request order, no matter how individual handlers fail.
// The loop controller can therefore always hand the model a well-formed
// observation batch.
type Executor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExecutor creates an Executor over the given registry.
func NewExecutor(registry *Registry, logger *zap.Logger) *Executor {
	return &Executor{registry: registry, logger: logger}
}

// Execute runs every call and returns one observation per call, in the
// same order. An unknown tool name or a failing handler produces an
// error observation for that call only; sibling calls still run.
// Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, calls []ToolCall) []Message {
	results := make([]Message, 0, len(calls))
	for _, call := range calls {
		results = append(results, e.executeOne(ctx, call))
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, call ToolCall) Message {
	entry, err := e.registry.Resolve(call.Name)
	if err != nil {
		e.logger.Warn("model requested unregistered tool",
			zap.String("tool", call.Name),
			zap.String("callID", call.ID),
		)
		return toolResult(call.ID, errorPayload("unknown tool "+call.Name))
	}

	start := time.Now()
	out, err := e.invoke(ctx, entry, call)

	if err != nil {
		e.logger.Warn("tool execution failed",
			zap.String("tool", call.Name),
			zap.String("callID", call.ID),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return toolResult(call.ID, errorPayload(err.Error()))
	}

	e.logger.Debug("tool executed",
		zap.String("tool", call.Name),
		zap.String("callID", call.ID),
		zap.Duration("took", time.Since(start)),
		zap.Int("outputLen", len(out)),
	)
	return toolResult(call.ID, out)
}

// invoke runs the handler with panic containment. A panicking handler
// must not take down the loop; it becomes an error observation like any
// other handler failure.
func (e *Executor) invoke(ctx context.Context, entry Entry, call ToolCall) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool %s panicked: %v", call.Name, p)
		}
	}()
	return entry.Handler(ctx, call.Arguments)
}
