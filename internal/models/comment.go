package models

import "github.com/google/uuid"

const CommentContentMaxLength = 1000

type Comment struct {
	BaseModel
	Content string    `json:"content" gorm:"type:text;not null"`
	UserID  uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	PostID  uuid.UUID `json:"postId" gorm:"type:uuid;not null;index"`

	User User `json:"user" gorm:"foreignKey:UserID"`
	Post Post `json:"-" gorm:"foreignKey:PostID"`
}
