// Package completion wraps the external chat-completion collaborator behind
// a role-tagged message API. The adapter adds no retry, truncation, or
// recovery of its own; collaborator errors pass through unchanged.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chat roles understood by the collaborator.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyPrompt indicates Submit was called with no messages.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Message is one role-tagged entry in a prompt.
type Message struct {
	Role    string
	Content string
}

// System builds a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Choice is one candidate completion. Text carries plain text content when
// the collaborator returns it; Message.Content carries the conversational
// form.
type Choice struct {
	Text    string
	Message ChatMessage
}

// ChatMessage is the conversational content of a choice.
type ChatMessage struct {
	Content string
}

// Response is the collaborator's answer: an ordered list of choices.
type Response struct {
	Choices []Choice
}

// Client is the completion collaborator boundary. Implemented by
// GenkitClient in production and by fakes in tests.
type Client interface {
	Complete(ctx context.Context, model string, messages []Message, temperature float32) (*Response, error)
}

// Adapter turns a message sequence into a single completion string.
type Adapter struct {
	client      Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewAdapter creates an Adapter bound to a model and temperature.
func NewAdapter(client Client, model string, temperature float32, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// Submit sends the prompt and returns the completion text. An empty or nil
// prompt is an input error. The logged token estimate (total characters
// divided by 4) is diagnostic only and never affects the request.
//
// Choice selection: the first choice carrying plain text wins over any
// choice's conversational content, regardless of position; when no choice
// has plain text, the first choice's conversational content is returned
// even if empty.
func (a *Adapter) Submit(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyPrompt
	}

	chars := 0
	for _, msg := range messages {
		chars += len(msg.Content)
	}
	a.logger.Debug("submitting prompt",
		"model", a.model, "messages", len(messages), "approx_tokens", chars/4)

	resp, err := a.client.Complete(ctx, a.model, messages, a.temperature)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	for _, choice := range resp.Choices {
		if choice.Text != "" {
			return choice.Text, nil
		}
	}
	return resp.Choices[0].Message.Content, nil
}
