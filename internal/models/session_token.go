package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionToken lets a dropped caller resume without redialing the whole
// ceremony. Tokens are opaque; the frontend stores one and replays it in its
// first message after the transport reconnects.
type SessionToken struct {
	BaseModel
	Token          string            `gorm:"uniqueIndex;not null" json:"-"`
	UserID         string            `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	NodeID         *int              `json:"node_id"`
	ExpiresAt      time.Time         `gorm:"index" json:"expires_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	Client         datatypes.JSONMap `json:"client,omitempty"`
}
