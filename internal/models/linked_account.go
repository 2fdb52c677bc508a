package models

import "github.com/google/uuid"

type AuthProvider string

const (
	AuthProviderGoogle AuthProvider = "google"
	AuthProviderGitHub AuthProvider = "github"
)

// LinkedAccount records an OAuth identity attached to a local user.
type LinkedAccount struct {
	BaseModel
	UserID         uuid.UUID    `json:"userId" gorm:"type:uuid;not null;index"`
	Provider       AuthProvider `json:"provider" gorm:"type:varchar(20);not null;uniqueIndex:idx_linked_provider_subject"`
	ProviderUserID string       `json:"providerUserId" gorm:"type:varchar(255);not null;uniqueIndex:idx_linked_provider_subject"`
	Email          string       `json:"email" gorm:"type:varchar(255)"`
	ProfileData    string       `json:"-" gorm:"type:text"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (LinkedAccount) TableName() string {
	return "linked_accounts"
}
