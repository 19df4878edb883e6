package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/pkg/crypto"
	"github.com/retroline/retroline/pkg/validator"
)

// AutoMigrate creates or updates the schema for all core models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.SessionToken{},
		&models.LoginAttempt{},
		&models.MailMessage{},
	)
}

// SeedData ensures a sysop account exists so a fresh board is reachable.
// The seeded password must be changed on first login; level 255 grants
// every menu item and unlimited session time.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	const sysopHandle = "Sysop"
	if !validator.ValidHandle(sysopHandle) {
		return errors.New("seed: invalid sysop handle")
	}

	hash, err := crypto.HashPassword("changeme")
	if err != nil {
		return err
	}

	sysop := models.User{
		Handle:       sysopHandle,
		PasswordHash: hash,
		Level:        255,
		DailyMinutes: 0, // unlimited
	}
	return db.Create(&sysop).Error
}
