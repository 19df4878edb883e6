package auth

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/pkg/crypto"
	"github.com/retroline/retroline/pkg/errors"
)

// DefaultTokenTTL is how long a session token stays valid without activity.
const DefaultTokenTTL = 24 * time.Hour

// TokenService issues and validates the opaque resume tokens handed to the
// frontend after login. A token survives transport drops; validating it
// refreshes its activity timestamp.
type TokenService struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewTokenService creates a TokenService with the given token lifetime.
func NewTokenService(db *gorm.DB, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{db: db, ttl: ttl}
}

// Create issues a fresh token for a user. client carries optional transport
// details (terminal size, client name) for the who's-online roster.
func (s *TokenService) Create(ctx context.Context, userID string, nodeID *int, client map[string]any) (*models.SessionToken, error) {
	raw, err := crypto.GenerateToken(32)
	if err != nil {
		return nil, errors.Wrap(err, "generate session token")
	}

	token := models.SessionToken{
		Token:          raw,
		UserID:         userID,
		NodeID:         nodeID,
		ExpiresAt:      time.Now().Add(s.ttl),
		LastActivityAt: time.Now(),
		Client:         datatypes.JSONMap(client),
	}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, errors.Wrap(err, "store session token")
	}
	return &token, nil
}

// Validate looks a token up, rejects expired ones and refreshes the
// activity timestamp on the survivors. The user record comes preloaded.
func (s *TokenService) Validate(ctx context.Context, raw string) (*models.SessionToken, error) {
	var token models.SessionToken
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("token = ?", raw).
		First(&token).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup session token")
	}

	if time.Now().After(token.ExpiresAt) {
		// expired tokens are deleted eagerly, not left for the sweeper
		s.db.WithContext(ctx).Delete(&models.SessionToken{}, "id = ?", token.ID)
		return nil, errors.ErrNotFound
	}

	token.LastActivityAt = time.Now()
	if err := s.db.WithContext(ctx).
		Model(&models.SessionToken{}).
		Where("id = ?", token.ID).
		Update("last_activity_at", token.LastActivityAt).Error; err != nil {
		return nil, errors.Wrap(err, "touch session token")
	}
	return &token, nil
}

// BindNode records which node the resumed session landed on.
func (s *TokenService) BindNode(ctx context.Context, tokenID string, nodeID *int) error {
	err := s.db.WithContext(ctx).
		Model(&models.SessionToken{}).
		Where("id = ?", tokenID).
		Update("node_id", nodeID).Error
	if err != nil {
		return errors.Wrap(err, "bind token node")
	}
	return nil
}

// Delete revokes one token. Deleting an unknown token is not an error.
func (s *TokenService) Delete(ctx context.Context, raw string) error {
	if err := s.db.WithContext(ctx).Where("token = ?", raw).Delete(&models.SessionToken{}).Error; err != nil {
		return errors.Wrap(err, "delete session token")
	}
	return nil
}

// DeleteForUser revokes every token a user holds.
func (s *TokenService) DeleteForUser(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.SessionToken{}).Error; err != nil {
		return errors.Wrap(err, "delete user tokens")
	}
	return nil
}

// ActiveTokenForUser returns the user's most recently active unexpired
// token, or errors.ErrNotFound.
func (s *TokenService) ActiveTokenForUser(ctx context.Context, userID string) (*models.SessionToken, error) {
	var token models.SessionToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("last_activity_at DESC").
		First(&token).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup active token")
	}
	return &token, nil
}

// CleanupExpired removes expired tokens and returns how many went away.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.SessionToken{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "cleanup session tokens")
	}
	return res.RowsAffected, nil
}
