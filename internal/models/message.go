package models

import "github.com/google/uuid"

const MessageContentMaxLength = 500

// Message is a chat-room entry. Messages are append-only: no update or
// delete surface exists.
type Message struct {
	BaseModel
	Content string    `json:"content" gorm:"type:varchar(500);not null"`
	UserID  uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}
