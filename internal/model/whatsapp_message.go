package model

import "time"

// WhatsappMessage is one inbound or outbound WhatsApp text kept for audit.
type WhatsappMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:32;not null;index" json:"user_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	FileURL    string    `gorm:"size:512" json:"file_url,omitempty"`
	IsReceived bool      `gorm:"not null;index" json:"is_received"`
	CreatedAt  time.Time `json:"created_at"`
}

func (WhatsappMessage) TableName() string {
	return "whatsapp_messages"
}
