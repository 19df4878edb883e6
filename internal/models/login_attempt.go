package models

import "time"

// LoginAttempt records one password check for lockout accounting. Handles are
// stored even for unknown users so probing a handle still counts.
type LoginAttempt struct {
	BaseModel
	Handle      string    `gorm:"index;not null" json:"handle"`
	Success     bool      `gorm:"not null;default:false" json:"success"`
	AttemptedAt time.Time `gorm:"index;not null" json:"attempted_at"`
}
