package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"carching-assistant/internal/ai"
)

const (
	// MaxHistoryKept is how many prior turns survive into the next window.
	MaxHistoryKept = 4

	ContextPlaceholder = "{context}"
	apologyPrefix      = "Sorry, I encountered an error: "
)

var ErrEmptyReply = errors.New("completion returned an empty reply")

type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

type ContextFetcher interface {
	FetchContext(ctx context.Context, query string) string
}

// ConversationEngine answers one user turn. It keeps no state between calls:
// history goes in and the updated history comes out.
type ConversationEngine struct {
	retriever ContextFetcher
	llm       Completer
	llmCfg    ai.ChatConfig
	logger    *slog.Logger
}

func NewConversationEngine(retriever ContextFetcher, llm Completer, llmCfg ai.ChatConfig, logger *slog.Logger) *ConversationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationEngine{
		retriever: retriever,
		llm:       llm,
		llmCfg:    llmCfg,
		logger:    logger,
	}
}

// Generate never fails: errors turn into an apology reply, and the user turn
// is recorded in the returned history either way. An empty model falls back
// to the configured chat model.
func (e *ConversationEngine) Generate(ctx context.Context, message string, history []ai.ChatMessage, template, model string) ([]ai.ChatMessage, string) {
	reply, err := e.complete(ctx, message, history, template, model)
	if err != nil {
		e.logger.Error("generate reply failed", "model", model, "error", err)
		reply = apologyPrefix + err.Error()
	}
	return UpdateHistory(history, message, reply), reply
}

func (e *ConversationEngine) complete(ctx context.Context, message string, history []ai.ChatMessage, template, model string) (string, error) {
	contextBlock := e.retriever.FetchContext(ctx, message)
	systemPrompt := strings.ReplaceAll(template, ContextPlaceholder, contextBlock)

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: message})

	cfg := e.llmCfg
	if model != "" {
		cfg.Model = model
	}
	reply, err := e.llm.Complete(ctx, cfg, messages)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// UpdateHistory keeps the last MaxHistoryKept entries of history and appends
// the user and assistant turns. The input slice is not modified.
func UpdateHistory(history []ai.ChatMessage, userMessage, reply string) []ai.ChatMessage {
	start := len(history) - MaxHistoryKept
	if start < 0 {
		start = 0
	}
	kept := history[start:]

	out := make([]ai.ChatMessage, 0, len(kept)+2)
	out = append(out, kept...)
	out = append(out,
		ai.ChatMessage{Role: ai.RoleUser, Content: userMessage},
		ai.ChatMessage{Role: ai.RoleAssistant, Content: reply},
	)
	return out
}
