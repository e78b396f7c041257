package app

import (
	"context"
	"log/slog"
	"time"

	"carching-assistant/internal/ai"
	"carching-assistant/internal/model"
	"carching-assistant/internal/whatsapp"
)

type Responder interface {
	Generate(ctx context.Context, message string, history []ai.ChatMessage, template, model string) ([]ai.ChatMessage, string)
}

type HistoryStore interface {
	GetHistory(ctx context.Context, waID string) ([]ai.ChatMessage, error)
	SetHistory(ctx context.Context, waID string, history []ai.ChatMessage) error
}

type MessageSender interface {
	SendText(ctx context.Context, to, body string) error
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.WhatsappMessage) error
}

type ReplyServiceConfig struct {
	Engine Responder
	Sender MessageSender
	// History and Publisher are optional.
	History      HistoryStore
	Publisher    AsyncMessagePublisher
	SystemPrompt string
	Model        string
	Attribution  string
	Logger       *slog.Logger
}

// ReplyService answers inbound WhatsApp messages.
type ReplyService struct {
	engine       Responder
	sender       MessageSender
	history      HistoryStore
	publisher    AsyncMessagePublisher
	systemPrompt string
	model        string
	attribution  string
	logger       *slog.Logger
}

func NewReplyService(cfg ReplyServiceConfig) *ReplyService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplyService{
		engine:       cfg.Engine,
		sender:       cfg.Sender,
		history:      cfg.History,
		publisher:    cfg.Publisher,
		systemPrompt: cfg.SystemPrompt,
		model:        cfg.Model,
		attribution:  cfg.Attribution,
		logger:       logger,
	}
}

// HandleInbound generates and sends the reply to one message. Only a send
// failure is returned; history and message log problems are logged.
func (s *ReplyService) HandleInbound(ctx context.Context, in whatsapp.InboundMessage) (string, error) {
	s.logMessage(ctx, in.WaID, in.Text, true)

	var history []ai.ChatMessage
	if s.history != nil {
		h, err := s.history.GetHistory(ctx, in.WaID)
		if err != nil {
			s.logger.Warn("load conversation history failed", "wa_id", in.WaID, "error", err)
		} else {
			history = h
		}
	}

	updated, reply := s.engine.Generate(ctx, in.Text, history, s.systemPrompt, s.model)

	if s.history != nil {
		if err := s.history.SetHistory(ctx, in.WaID, updated); err != nil {
			s.logger.Warn("store conversation history failed", "wa_id", in.WaID, "error", err)
		}
	}

	body := whatsapp.FormatReply(reply, s.attribution)
	if err := s.sender.SendText(ctx, in.WaID, body); err != nil {
		s.logger.Error("send whatsapp reply failed", "wa_id", in.WaID, "error", err)
		return body, err
	}
	s.logMessage(ctx, in.WaID, body, false)
	return body, nil
}

func (s *ReplyService) logMessage(ctx context.Context, waID, text string, received bool) {
	if s.publisher == nil {
		return
	}
	msg := model.WhatsappMessage{
		UserID:     waID,
		Text:       text,
		IsReceived: received,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("publish message log failed", "wa_id", waID, "error", err)
	}
}
