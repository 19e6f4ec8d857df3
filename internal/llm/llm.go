// Package llm provides the generation backends behind the runtime's
// model gateway: an OpenAI-compatible HTTP client with tool calling and
// embeddings, and a local Claude CLI wrapper for plain completions.
package llm

import (
	"context"

	"github.com/skua-dev/skua/internal/runtime"
)

// Completer produces plain text from a single prompt. The summarizer
// and the thread-title controller only need this narrow surface, so
// either backend can serve them.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelSelector is implemented by gateways that can produce a variant
// bound to a specific model and sampling temperature, so each agent
// profile generates with its own settings.
type ModelSelector interface {
	WithModel(model string, temperature float64) runtime.Gateway
}
