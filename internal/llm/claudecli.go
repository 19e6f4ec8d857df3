package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
)

// ClaudeCLI wraps the local Claude CLI in print mode. It uses the
// user's local Claude subscription instead of a raw API key, which
// makes it a convenient Completer backend for the summarizer and the
// thread-title controller. It does not support tool calling.
type ClaudeCLI struct {
	cliBin string
	model  string
	logger *zap.Logger
}

// NewClaudeCLI creates a ClaudeCLI completer. If cliBin is empty, it
// defaults to "claude" (resolved via PATH).
func NewClaudeCLI(cliBin, model string, logger *zap.Logger) *ClaudeCLI {
	if cliBin == "" {
		cliBin = "claude"
	}
	return &ClaudeCLI{cliBin: cliBin, model: model, logger: logger}
}

// cliResponse maps the JSON output of `claude -p --output-format json`.
type cliResponse struct {
	Type      string  `json:"type"`
	Subtype   string  `json:"subtype"`
	IsError   bool    `json:"is_error"`
	Result    string  `json:"result"`
	NumTurns  int     `json:"num_turns"`
	TotalCost float64 `json:"total_cost_usd"`
	Usage     struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends the prompt through the CLI and returns the result text.
// Failures wrap runtime.ErrGeneration like any other backend failure.
func (c *ClaudeCLI) Complete(ctx context.Context, prompt string) (string, error) {
	args := []string{"-p", prompt, "--output-format", "json"}
	if model := cliModelFlag(c.model); model != "" {
		args = append(args, "--model", model)
	}

	c.logger.Debug("invoking claude CLI",
		zap.String("bin", c.cliBin),
		zap.Int("promptLen", len(prompt)),
	)

	cmd := exec.CommandContext(ctx, c.cliBin, args...)
	// Unset CLAUDECODE to allow nested invocation.
	cmd.Env = dropEnv(os.Environ(), "CLAUDECODE")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", fmt.Errorf("%w: claude CLI: %s", runtime.ErrGeneration, errMsg)
	}

	var resp cliResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("%w: parsing claude CLI output: %v", runtime.ErrGeneration, err)
	}
	if resp.IsError && resp.Subtype != "error_max_turns" {
		return "", fmt.Errorf("%w: claude CLI returned error: %s", runtime.ErrGeneration, resp.Result)
	}

	c.logger.Debug("claude CLI call completed",
		zap.Int("tokensIn", resp.Usage.InputTokens),
		zap.Int("tokensOut", resp.Usage.OutputTokens),
		zap.Float64("costUSD", resp.TotalCost),
	)
	return resp.Result, nil
}

// cliModelFlag maps Skua model shortnames to CLI --model values.
func cliModelFlag(model string) string {
	switch model {
	case "claude-sonnet":
		return "sonnet"
	case "claude-haiku":
		return "haiku"
	case "claude-opus":
		return "opus"
	default:
		return model
	}
}

// dropEnv returns a copy of env with the given key removed.
func dropEnv(env []string, key string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}
