package database

import (
	"fmt"

	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey; the like toggle and sign-up rely on it.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Message{},
		&models.LinkedAccount{},
	)
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	seed := config.AdminSeed()
	hash, err := utils.HashPassword(seed.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        seed.Email,
		PasswordHash: &hash,
		Name:         "System Admin",
		Role:         models.UserRoleAdmin,
	}

	return db.Create(&admin).Error
}
