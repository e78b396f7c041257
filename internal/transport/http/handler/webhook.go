package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carching-assistant/internal/transport/http/middleware"
	"carching-assistant/internal/transport/http/response"
	"carching-assistant/internal/whatsapp"
)

type InboundHandler interface {
	HandleInbound(ctx context.Context, in whatsapp.InboundMessage) (string, error)
}

type WebhookHandler struct {
	verifyToken string
	replies     InboundHandler
	logger      *slog.Logger
}

func NewWebhookHandler(verifyToken string, replies InboundHandler, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{verifyToken: verifyToken, replies: replies, logger: logger}
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := whatsapp.VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if err != nil {
		switch {
		case errors.Is(err, whatsapp.ErrVerifyMissingParams):
			response.Status(c, http.StatusBadRequest, response.StatusError, "Missing parameters")
		default:
			h.logger.Warn("webhook verification failed")
			response.Status(c, http.StatusForbidden, response.StatusError, "Verification failed")
		}
		return
	}
	h.logger.Info("webhook verified")
	c.String(http.StatusOK, challenge)
}

// Receive handles one signed webhook delivery and replies synchronously.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := rawBody(c)
	if err != nil {
		response.Status(c, http.StatusBadRequest, response.StatusError, "read body failed")
		return
	}

	in, err := whatsapp.ParseWebhook(body)
	if err != nil {
		switch {
		case errors.Is(err, whatsapp.ErrStatusUpdate):
			response.Status(c, http.StatusOK, response.StatusOK, "")
		case errors.Is(err, whatsapp.ErrMalformedPayload):
			response.Status(c, http.StatusBadRequest, response.StatusError, "Invalid JSON provided")
		default:
			response.Status(c, http.StatusNotFound, response.StatusError, "Not a WhatsApp API event")
		}
		return
	}

	h.logger.Info("whatsapp message received", "wa_id", in.WaID, "name", in.Name, "message_id", in.MessageID)
	if _, err := h.replies.HandleInbound(c.Request.Context(), *in); err != nil {
		switch {
		case errors.Is(err, whatsapp.ErrSendTimeout):
			response.Status(c, http.StatusRequestTimeout, response.StatusError, "Request timed out")
		default:
			response.Status(c, http.StatusInternalServerError, response.StatusError, "Failed to send message")
		}
		return
	}
	response.Status(c, http.StatusOK, response.StatusOK, "")
}

func rawBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(middleware.ContextRawBodyKey); ok {
		if body, ok := v.([]byte); ok {
			return body, nil
		}
	}
	return io.ReadAll(c.Request.Body)
}
