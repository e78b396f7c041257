package repository

import (
	"fmt"

	"gorm.io/gorm"

	"carching-assistant/internal/model"
)

type WhatsappMessageRepository struct {
	db *gorm.DB
}

func NewWhatsappMessageRepository(db *gorm.DB) *WhatsappMessageRepository {
	return &WhatsappMessageRepository{db: db}
}

func (r *WhatsappMessageRepository) Create(message *model.WhatsappMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create whatsapp message failed: %w", err)
	}
	return nil
}

// ListByUserID returns the newest messages of one sender, oldest first.
func (r *WhatsappMessageRepository) ListByUserID(userID string, limit int) ([]model.WhatsappMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []model.WhatsappMessage
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list whatsapp messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
