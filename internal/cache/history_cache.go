package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"carching-assistant/internal/ai"
)

// HistoryCache keeps the conversation window of each WhatsApp sender.
type HistoryCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = time.Hour
	}
	return &HistoryCache{
		client:     client,
		historyTTL: historyTTL,
	}
}

// GetHistory returns an empty history for unknown or expired senders.
func (c *HistoryCache) GetHistory(ctx context.Context, waID string) ([]ai.ChatMessage, error) {
	raw, err := c.client.Get(ctx, c.historyKey(waID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get history failed: %w", err)
	}

	var history []ai.ChatMessage
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return history, nil
}

func (c *HistoryCache) SetHistory(ctx context.Context, waID string, history []ai.ChatMessage) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(waID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) DeleteHistory(ctx context.Context, waID string) error {
	if err := c.client.Del(ctx, c.historyKey(waID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) historyKey(waID string) string {
	return "whatsapp:history:" + waID
}
