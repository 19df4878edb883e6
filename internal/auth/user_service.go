package auth

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/pkg/crypto"
	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/validator"
)

// UserService is the account store.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateInput is the new-account form.
type CreateInput struct {
	Handle       string `validate:"required,handle"`
	Email        string `validate:"omitempty,email"`
	Password     string `validate:"required,min=6"`
	Level        int    `validate:"gte=0,lte=255"`
	DailyMinutes int    `validate:"gte=0"`
}

// Create registers a new caller.
func (s *UserService) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := models.User{
		Handle:       input.Handle,
		Email:        input.Email,
		PasswordHash: hash,
		Level:        input.Level,
		DailyMinutes: input.DailyMinutes,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return &user, nil
}

// FindByHandle looks a caller up by handle, ignoring case.
func (s *UserService) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(handle) = LOWER(?)", handle).
		First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "find user by handle")
	}
	return &user, nil
}

// FindByID looks a caller up by id.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}

// RecordLogin bumps the login counter and timestamp after a successful
// password check.
func (s *UserService) RecordLogin(ctx context.Context, id string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_logins":  gorm.Expr("total_logins + 1"),
			"last_login_at": now,
		}).Error
	if err != nil {
		return errors.Wrap(err, "record login")
	}
	return nil
}

// AddSessionTime credits minutes spent online to the caller's totals.
func (s *UserService) AddSessionTime(ctx context.Context, id string, minutes int64) error {
	if minutes <= 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("total_minutes", gorm.Expr("total_minutes + ?", minutes)).Error
	if err != nil {
		return errors.Wrap(err, "add session time")
	}
	return nil
}
