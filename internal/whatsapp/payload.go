package whatsapp

import (
	"encoding/json"
	"errors"
)

var (
	ErrMalformedPayload = errors.New("invalid JSON provided")
	// ErrStatusUpdate marks delivery/read receipts, which need no reply.
	ErrStatusUpdate = errors.New("status update")
	ErrNoMessage    = errors.New("not a WhatsApp API event")
	ErrNotText      = errors.New("message is not text")
)

type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Contacts         []Contact         `json:"contacts"`
	Messages         []Message         `json:"messages"`
	Statuses         []json.RawMessage `json:"statuses"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
}

// InboundMessage is the part of a webhook event the responder acts on.
type InboundMessage struct {
	WaID      string
	Name      string
	MessageID string
	Text      string
}

// ParseWebhook extracts the first text message of a webhook body. It returns
// ErrStatusUpdate for receipt-only events, ErrMalformedPayload for invalid
// JSON, ErrNoMessage when the message structure is absent and ErrNotText for
// media and other non-text messages.
func ParseWebhook(body []byte) (*InboundMessage, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrMalformedPayload
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, ErrNoMessage
	}

	value := payload.Entry[0].Changes[0].Value
	if len(value.Statuses) > 0 && len(value.Messages) == 0 {
		return nil, ErrStatusUpdate
	}
	if payload.Object == "" || len(value.Messages) == 0 {
		return nil, ErrNoMessage
	}

	msg := value.Messages[0]
	if msg.Text == nil || (msg.Type != "" && msg.Type != "text") {
		return nil, ErrNotText
	}

	in := &InboundMessage{WaID: msg.From, MessageID: msg.ID, Text: msg.Text.Body}
	if len(value.Contacts) > 0 {
		if value.Contacts[0].WaID != "" {
			in.WaID = value.Contacts[0].WaID
		}
		in.Name = value.Contacts[0].Profile.Name
	}
	if in.WaID == "" {
		return nil, ErrNoMessage
	}
	return in, nil
}
