package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// State is the loop controller's position in a turn.
type State string

const (
	// AwaitingModel means the next step is a gateway call.
	AwaitingModel State = "AwaitingModel"
	// AwaitingTools means the last assistant message carried tool calls
	// that have not been executed yet.
	AwaitingTools State = "AwaitingTools"
	// Halted is terminal: the turn is over and the history is final.
	Halted State = "Halted"
)

// DefaultMaxCalls bounds gateway invocations per turn when the caller
// does not configure one.
const DefaultMaxCalls = 8

// Session is the state owned by one loop execution: the append-only
// conversation history and the number of gateway calls made in the
// current turn. Sessions are not safe for concurrent use; each REPL,
// thread or HTTP request drives its own.
type Session struct {
	History []Message
	// Calls counts gateway invocations within the current turn only.
	// RunTurn resets it when a new user message arrives.
	Calls int
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// append extends the history. The history is never reordered or
// mutated in place, only extended.
func (s *Session) append(msgs ...Message) {
	s.History = append(s.History, msgs...)
}

// Last returns the most recent message, or a zero Message when the
// history is empty.
func (s *Session) Last() Message {
	if len(s.History) == 0 {
		return Message{}
	}
	return s.History[len(s.History)-1]
}

// Loop drives one agent: ask the model, execute whatever tools it
// requested, feed the observations back, repeat until the model answers
// without tool calls or the call budget runs out.
type Loop struct {
	gateway  Gateway
	executor *Executor
	registry *Registry
	system   string
	maxCalls int
	logger   *zap.Logger
}

// LoopConfig carries the per-agent knobs for a Loop.
type LoopConfig struct {
	// System is the fixed instruction prepended by the gateway on every
	// call. It is never stored in the session history.
	System string
	// MaxCalls bounds gateway invocations per turn. Zero means
	// DefaultMaxCalls.
	MaxCalls int
}

// NewLoop wires a loop controller from its three collaborators.
func NewLoop(gateway Gateway, registry *Registry, cfg LoopConfig, logger *zap.Logger) *Loop {
	maxCalls := cfg.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	return &Loop{
		gateway:  gateway,
		executor: NewExecutor(registry, logger),
		registry: registry,
		system:   cfg.System,
		maxCalls: maxCalls,
		logger:   logger,
	}
}

// RunTurn appends the user input to the session and drives the state
// machine until it halts. On success the session history ends with the
// model's final assistant message. On failure the history holds
// everything produced so far and the error says why the turn stopped:
// a generation failure wraps ErrGeneration, an exhausted call budget
// wraps ErrLoopBound. Tool-level failures never end a turn -- the
// executor converts them to observations the model reacts to.
func (l *Loop) RunTurn(ctx context.Context, session *Session, input string) error {
	session.Calls = 0
	session.append(UserMessage(input))

	state := AwaitingModel
	var pending []ToolCall

	for state != Halted {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state {
		case AwaitingModel:
			if session.Calls >= l.maxCalls {
				l.logger.Warn("turn exceeded model call budget",
					zap.Int("maxCalls", l.maxCalls),
				)
				return fmt.Errorf("%w: %d calls", ErrLoopBound, l.maxCalls)
			}

			reply, err := l.gateway.Generate(ctx, l.system, session.History, l.registry.Specs())
			if err != nil {
				return fmt.Errorf("model call %d: %w", session.Calls+1, err)
			}
			session.Calls++
			session.append(reply)

			if len(reply.ToolCalls) > 0 {
				pending = reply.ToolCalls
				state = AwaitingTools
			} else {
				state = Halted
			}

		case AwaitingTools:
			l.logger.Debug("executing tool batch", zap.Int("calls", len(pending)))
			session.append(l.executor.Execute(ctx, pending)...)
			pending = nil
			state = AwaitingModel
		}
	}

	return nil
}
