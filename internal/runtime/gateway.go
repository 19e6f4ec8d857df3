package runtime

import "context"

// Gateway abstracts the external text-generation service. A call is
// bound to the history snapshot passed in; the gateway keeps no state
// between calls.
//
// Implementations must present the full history, the system instruction
// and every tool spec to the backing service, and return exactly one
// assistant message carrying plain text and/or tool calls. Failures --
// unreachable service, malformed output -- must wrap ErrGeneration so
// the loop controller can halt and surface them; retry policy belongs
// to callers, not here.
type Gateway interface {
	Generate(ctx context.Context, system string, history []Message, tools []Spec) (Message, error)
}

// GenerateFunc adapts a plain function to the Gateway interface.
// Used by tests to script gateway responses.
type GenerateFunc func(ctx context.Context, system string, history []Message, tools []Spec) (Message, error)

func (f GenerateFunc) Generate(ctx context.Context, system string, history []Message, tools []Spec) (Message, error) {
	return f(ctx, system, history, tools)
}
