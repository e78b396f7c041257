package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"carching-assistant/internal/transport/http/response"
	"carching-assistant/internal/whatsapp"
)

const (
	ContextRawBodyKey = "raw_body"

	maxWebhookBody = 1 << 20
)

// WhatsAppSignature rejects webhook deliveries whose X-Hub-Signature-256
// header does not match the body. The raw body is kept in the context and
// restored on the request for the handler.
func WhatsAppSignature(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			response.AbortStatus(c, http.StatusBadRequest, response.StatusError, "read body failed")
			return
		}
		if err := whatsapp.ValidateSignature(appSecret, body, c.GetHeader(whatsapp.SignatureHeader)); err != nil {
			response.AbortStatus(c, http.StatusForbidden, response.StatusError, err.Error())
			return
		}

		c.Set(ContextRawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
