package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carching-assistant/internal/ai"
	"carching-assistant/internal/app"
	"carching-assistant/internal/transport/http/response"
)

type ChatResponder interface {
	Chat(ctx context.Context, input app.ChatInput) (*app.ChatResult, error)
	Ping(ctx context.Context, question string) string
}

type ChatHandler struct {
	chatService ChatResponder
}

type ChatRequest struct {
	Message      string           `json:"message" binding:"required"`
	History      []ai.ChatMessage `json:"history"`
	Model        string           `json:"model"`
	SystemPrompt string           `json:"system_prompt"`
}

func NewChatHandler(chatService ChatResponder) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat runs one turn over caller-held history.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), app.ChatInput{
		Message:      req.Message,
		History:      req.History,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrModelNotAllowed):
			response.Error(c, http.StatusBadRequest, response.CodeModelNotAllowed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "chat failed")
		}
		return
	}

	response.OK(c, result)
}

// Ping answers a fixed question, or ?q= when given, with empty history.
func (h *ChatHandler) Ping(c *gin.Context) {
	question := c.Query("q")
	reply := h.chatService.Ping(c.Request.Context(), question)
	response.OK(c, gin.H{"reply": reply})
}
