package mail

import (
	"context"

	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/pkg/errors"
)

// Service stores private caller-to-caller mail.
type Service struct {
	db *gorm.DB
}

// NewService creates a mail Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Send delivers a message to another caller's mailbox.
func (s *Service) Send(ctx context.Context, fromUserID, fromHandle, toUserID, subject, body string) (*models.MailMessage, error) {
	msg := models.MailMessage{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		FromHandle: fromHandle,
		Subject:    subject,
		Body:       body,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, errors.Wrap(err, "send mail")
	}
	return &msg, nil
}

// UnreadCount reports how many unread messages a caller has. Shown on the
// clock status line.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.MailMessage{}).
		Where("to_user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count unread mail")
	}
	return count, nil
}

// Inbox returns a caller's messages, newest first.
func (s *Service) Inbox(ctx context.Context, userID string) ([]models.MailMessage, error) {
	var msgs []models.MailMessage
	err := s.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "load inbox")
	}
	return msgs, nil
}

// MarkRead flags one message as read.
func (s *Service) MarkRead(ctx context.Context, userID, messageID string) error {
	res := s.db.WithContext(ctx).
		Model(&models.MailMessage{}).
		Where("id = ? AND to_user_id = ?", messageID, userID).
		Update("read", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "mark mail read")
	}
	if res.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
