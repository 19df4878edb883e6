package models

import "time"

// User is a registered caller. Level gates menu items; DailyMinutes sizes the
// session clock (0 means unlimited, reserved for sysops).
type User struct {
	BaseModel
	Handle       string     `gorm:"uniqueIndex;not null" json:"handle"`
	Email        string     `gorm:"index" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Level        int        `gorm:"not null;default:0" json:"level"`
	DailyMinutes int        `gorm:"not null;default:60" json:"daily_minutes"`
	TotalLogins  int        `gorm:"not null;default:0" json:"total_logins"`
	TotalMinutes int64      `gorm:"not null;default:0" json:"total_minutes"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}
