package app

import (
	"context"
	"errors"
	"strings"

	"carching-assistant/internal/ai"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrMessageEmpty    = errors.New("message content is empty")
	ErrModelNotAllowed = errors.New("model is not allowed")
)

type ChatServiceConfig struct {
	SystemPrompt string
	Model        string
	// AllowedModels lists models callers may pick besides Model.
	AllowedModels []string
	PingQuestion  string
}

// ChatService serves callers that hold their own history, such as the web
// chat UI.
type ChatService struct {
	engine Responder
	cfg    ChatServiceConfig
}

func NewChatService(engine Responder, cfg ChatServiceConfig) *ChatService {
	return &ChatService{engine: engine, cfg: cfg}
}

type ChatInput struct {
	Message      string
	History      []ai.ChatMessage
	Model        string
	SystemPrompt string
}

type ChatResult struct {
	History []ai.ChatMessage `json:"history"`
	Reply   string           `json:"reply"`
}

func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMessageEmpty
	}
	for _, turn := range input.History {
		switch turn.Role {
		case ai.RoleSystem, ai.RoleUser, ai.RoleAssistant:
		default:
			return nil, ErrInvalidInput
		}
	}

	model := input.Model
	if model == "" {
		model = s.cfg.Model
	}
	if !s.modelAllowed(model) {
		return nil, ErrModelNotAllowed
	}
	prompt := input.SystemPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = s.cfg.SystemPrompt
	}

	history, reply := s.engine.Generate(ctx, message, input.History, prompt, model)
	return &ChatResult{History: history, Reply: reply}, nil
}

// Ping runs one turn with empty history. An empty question uses the
// configured ping question.
func (s *ChatService) Ping(ctx context.Context, question string) string {
	if strings.TrimSpace(question) == "" {
		question = s.cfg.PingQuestion
	}
	_, reply := s.engine.Generate(ctx, question, nil, s.cfg.SystemPrompt, s.cfg.Model)
	return reply
}

func (s *ChatService) modelAllowed(model string) bool {
	if model == s.cfg.Model {
		return true
	}
	for _, m := range s.cfg.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}
