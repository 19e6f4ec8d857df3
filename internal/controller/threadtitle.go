package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/llm"
	"github.com/skua-dev/skua/internal/store"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// topicPrompt asks for a short title; anything past five words is cut
// off client-side.
const topicPrompt = `Generate a concise topic title (max 5 words) for this conversation. Reply with the title only, no quotes and no punctuation around it.

Conversation:
%s`

// topicContextMessages bounds how much transcript is sent for titling.
const topicContextMessages = 6

// ThreadTitleController fills in the topic of threads still carrying
// the default one, once at least one user/assistant exchange exists.
type ThreadTitleController struct {
	store     store.Store
	completer llm.Completer
	logger    *zap.Logger
}

// NewThreadTitleController creates the titling controller.
func NewThreadTitleController(s store.Store, completer llm.Completer, logger *zap.Logger) *ThreadTitleController {
	return &ThreadTitleController{store: s, completer: completer, logger: logger}
}

// Reconcile titles a thread if it needs one.
func (c *ThreadTitleController) Reconcile(ctx context.Context, key string) error {
	var thread v1alpha1.Thread
	if err := c.store.Get(key, &thread); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("getting thread %q: %w", key, err)
	}

	if thread.Status.Topic != "" && thread.Status.Topic != v1alpha1.DefaultTopic {
		return nil
	}
	if !hasExchange(thread.Status.Messages) {
		return nil
	}

	topic, err := c.generateTopic(ctx, thread.Status.Messages)
	if err != nil {
		return fmt.Errorf("generating topic for %s: %w", thread.Metadata.Name, err)
	}

	// Re-read before writing: a chat turn may have appended messages
	// while the completion was in flight.
	var current v1alpha1.Thread
	if err := c.store.Get(key, &current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("re-reading thread %q: %w", key, err)
	}
	current.Status.Topic = topic
	if err := c.store.Update(key, current); err != nil {
		return fmt.Errorf("updating thread %s: %w", current.Metadata.Name, err)
	}

	c.logger.Info("thread titled",
		zap.String("thread", current.Metadata.Name),
		zap.String("topic", topic),
	)
	return nil
}

func (c *ThreadTitleController) generateTopic(ctx context.Context, messages []v1alpha1.ThreadMessage) (string, error) {
	var transcript strings.Builder
	start := 0
	if len(messages) > topicContextMessages {
		start = len(messages) - topicContextMessages
	}
	for _, msg := range messages[start:] {
		if msg.Role != v1alpha1.RoleUser && msg.Role != v1alpha1.RoleAssistant {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", msg.Role, msg.Content)
	}

	raw, err := c.completer.Complete(ctx, fmt.Sprintf(topicPrompt, transcript.String()))
	if err != nil {
		return "", err
	}

	topic := sanitizeTopic(raw)
	if topic == "" {
		return "", fmt.Errorf("empty topic from model")
	}
	return topic, nil
}

// hasExchange reports whether the transcript contains at least one user
// message followed by an assistant reply.
func hasExchange(messages []v1alpha1.ThreadMessage) bool {
	sawUser := false
	for _, msg := range messages {
		switch msg.Role {
		case v1alpha1.RoleUser:
			sawUser = true
		case v1alpha1.RoleAssistant:
			if sawUser && msg.Content != "" {
				return true
			}
		}
	}
	return false
}

// sanitizeTopic trims quotes and enforces the five-word bound the
// prompt asks for.
func sanitizeTopic(raw string) string {
	topic := strings.TrimSpace(raw)
	topic = strings.Trim(topic, `"'`)
	topic = strings.TrimSuffix(topic, ".")
	words := strings.Fields(topic)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
