package models

import "github.com/google/uuid"

// Like rows are unique per (user, post); the composite index is what makes
// the toggle safe under concurrent requests.
type Like struct {
	BaseModel
	UserID uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_post"`
	PostID uuid.UUID `json:"postId" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_post"`
}
