package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carching-assistant/internal/ai"
	"carching-assistant/internal/whatsapp"
)

func newReplyFixture(reply string) (*ReplyService, *fakeSender, *memoryHistory, *fakePublisher) {
	engine := NewConversationEngine(fixedContext("ctx"), &fakeCompleter{reply: reply}, ai.ChatConfig{Model: "gpt-3.5-turbo"}, nil)
	sender := &fakeSender{}
	history := &memoryHistory{data: map[string][]ai.ChatMessage{}}
	publisher := &fakePublisher{}
	svc := NewReplyService(ReplyServiceConfig{
		Engine:       engine,
		Sender:       sender,
		History:      history,
		Publisher:    publisher,
		SystemPrompt: "{context}",
		Attribution:  whatsapp.DefaultAttribution,
	})
	return svc, sender, history, publisher
}

func TestHandleInbound_SendsFormattedReply(t *testing.T) {
	svc, sender, history, publisher := newReplyFixture("Your **next service** is due【4:0†source】.")
	in := whatsapp.InboundMessage{WaID: "6591234567", Name: "Ann", Text: "when is my service?"}

	body, err := svc.HandleInbound(context.Background(), in)
	require.NoError(t, err)

	want := "Your *next service* is due.\n\n" + whatsapp.DefaultAttribution
	assert.Equal(t, want, body)
	assert.Equal(t, "6591234567", sender.to)
	assert.Equal(t, want, sender.body)

	stored := history.data["6591234567"]
	require.Len(t, stored, 2)
	assert.Equal(t, "when is my service?", stored[0].Content)

	require.Len(t, publisher.published, 2)
	assert.True(t, publisher.published[0].IsReceived)
	assert.Equal(t, "when is my service?", publisher.published[0].Text)
	assert.False(t, publisher.published[1].IsReceived)
	assert.Equal(t, want, publisher.published[1].Text)
}

func TestHandleInbound_UsesStoredHistory(t *testing.T) {
	svc, _, history, _ := newReplyFixture("sure")
	history.data["1"] = []ai.ChatMessage{
		{Role: ai.RoleUser, Content: "a"},
		{Role: ai.RoleAssistant, Content: "b"},
		{Role: ai.RoleUser, Content: "c"},
		{Role: ai.RoleAssistant, Content: "d"},
		{Role: ai.RoleUser, Content: "e"},
		{Role: ai.RoleAssistant, Content: "f"},
	}

	_, err := svc.HandleInbound(context.Background(), whatsapp.InboundMessage{WaID: "1", Text: "g"})
	require.NoError(t, err)

	stored := history.data["1"]
	require.Len(t, stored, 6)
	assert.Equal(t, "c", stored[0].Content)
	assert.Equal(t, "sure", stored[5].Content)
}

func TestHandleInbound_SendFailureReturned(t *testing.T) {
	svc, sender, history, publisher := newReplyFixture("hi")
	sender.err = whatsapp.ErrSendTimeout

	_, err := svc.HandleInbound(context.Background(), whatsapp.InboundMessage{WaID: "1", Text: "q"})
	assert.ErrorIs(t, err, whatsapp.ErrSendTimeout)
	assert.Len(t, history.data["1"], 2)
	assert.Len(t, publisher.published, 1)
}

func TestHandleInbound_ToleratesHistoryAndLogFailures(t *testing.T) {
	svc, sender, history, publisher := newReplyFixture("hi")
	history.getErr = errBoom
	publisher.err = errBoom

	_, err := svc.HandleInbound(context.Background(), whatsapp.InboundMessage{WaID: "1", Text: "q"})
	require.NoError(t, err)
	assert.Contains(t, sender.body, "hi")
}
