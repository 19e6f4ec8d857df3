package runtime

import "errors"

// Sentinel errors. Tool-level failures (unknown name, handler error) are
// never surfaced through these: the executor converts them to error
// observations so a single bad call cannot abort its siblings.
var (
	// ErrDuplicateTool is returned by Registry.Register when the name is
	// already taken. Registration happens at startup, so this is fatal
	// misconfiguration, not a request-time condition.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrUnknownTool is returned by Registry.Resolve for names outside
	// the registered vocabulary.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrGeneration wraps failures of the text-generation backend. There
	// is no local recovery: the loop halts and returns the partial
	// history together with the wrapped error.
	ErrGeneration = errors.New("generation failed")

	// ErrLoopBound is returned when a turn exceeds its model-call budget.
	// The loop fails closed rather than spinning on a tool-call-happy
	// model.
	ErrLoopBound = errors.New("loop call bound exceeded")
)
