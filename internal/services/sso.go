package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/pkg/logger"
	"gorm.io/gorm"
)

type SSOService struct {
	DB *gorm.DB
}

func NewSSOService(db *gorm.DB) *SSOService {
	return &SSOService{DB: db}
}

type OAuthProfile struct {
	Provider       models.AuthProvider
	ProviderUserID string
	Email          string
	Name           string
	Image          *string
	RawProfile     map[string]interface{}
}

// FindOrCreateUser resolves an OAuth profile to a local account. An
// existing account (matched by email) gets a LinkedAccount row; a new
// account is created with the default member role and no password hash.
func (s *SSOService) FindOrCreateUser(ctx context.Context, profile *OAuthProfile) (*models.User, error) {
	var user models.User

	err := s.DB.WithContext(ctx).First(&user, "email = ?", profile.Email).Error
	if err == nil {
		s.recordLink(ctx, &user, profile)
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Email: profile.Email,
		Name:  profile.Name,
		Image: profile.Image,
		Role:  models.UserRoleMember,
	}

	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	s.recordLink(ctx, &user, profile)

	logger.Info("sso_user_created", map[string]interface{}{
		"user_id":  user.ID.String(),
		"email":    user.Email,
		"provider": string(profile.Provider),
	})

	return &user, nil
}

func (s *SSOService) recordLink(ctx context.Context, user *models.User, profile *OAuthProfile) {
	linked := models.LinkedAccount{
		UserID:         user.ID,
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		Email:          profile.Email,
	}
	profileJSON, _ := json.Marshal(profile.RawProfile)
	linked.ProfileData = string(profileJSON)

	if err := s.DB.WithContext(ctx).Create(&linked).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn("sso_link_account_failed", map[string]interface{}{
				"user_id":  user.ID.String(),
				"provider": string(profile.Provider),
				"error":    err.Error(),
			})
		}
	}
}

func (s *SSOService) GetLinkedAccounts(ctx context.Context, user *models.User) ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount
	err := s.DB.WithContext(ctx).Where("user_id = ?", user.ID).Find(&accounts).Error
	return accounts, err
}
