package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carching-assistant/internal/ai"
)

func newChatFixture() (*ChatService, *fakeCompleter) {
	llm := &fakeCompleter{reply: "answer"}
	engine := NewConversationEngine(fixedContext("ctx"), llm, ai.ChatConfig{Model: "gpt-3.5-turbo"}, nil)
	svc := NewChatService(engine, ChatServiceConfig{
		SystemPrompt:  "default {context}",
		Model:         "gpt-3.5-turbo",
		AllowedModels: []string{"gpt-4o"},
		PingQuestion:  "What services do you offer?",
	})
	return svc, llm
}

func TestChat_Succeeds(t *testing.T) {
	svc, llm := newChatFixture()

	res, err := svc.Chat(context.Background(), ChatInput{
		Message:      "  hello ",
		Model:        "gpt-4o",
		SystemPrompt: "custom {context}",
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Reply)
	require.Len(t, res.History, 2)
	assert.Equal(t, "hello", res.History[0].Content)
	assert.Equal(t, "gpt-4o", llm.gotCfg.Model)
	assert.Equal(t, "custom ctx", llm.messages[0].Content)
}

func TestChat_DefaultsPromptAndModel(t *testing.T) {
	svc, llm := newChatFixture()

	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", llm.gotCfg.Model)
	assert.Equal(t, "default ctx", llm.messages[0].Content)
}

func TestChat_RejectsBadInput(t *testing.T) {
	svc, _ := newChatFixture()

	_, err := svc.Chat(context.Background(), ChatInput{Message: " "})
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = svc.Chat(context.Background(), ChatInput{Message: "hi", Model: "gpt-9"})
	assert.ErrorIs(t, err, ErrModelNotAllowed)

	_, err = svc.Chat(context.Background(), ChatInput{
		Message: "hi",
		History: []ai.ChatMessage{{Role: "tool", Content: "x"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPing_UsesConfiguredQuestion(t *testing.T) {
	svc, llm := newChatFixture()

	assert.Equal(t, "answer", svc.Ping(context.Background(), ""))
	last := llm.messages[len(llm.messages)-1]
	assert.Equal(t, "What services do you offer?", last.Content)

	svc.Ping(context.Background(), "opening hours?")
	assert.Equal(t, "opening hours?", llm.messages[len(llm.messages)-1].Content)
}
