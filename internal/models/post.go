package models

import "github.com/google/uuid"

const PostContentMaxLength = 2000

type Post struct {
	BaseModel
	Content string    `json:"content" gorm:"type:text;not null"`
	UserID  uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`

	User     User      `json:"user" gorm:"foreignKey:UserID"`
	Comments []Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Likes    []Like    `json:"likes" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}
