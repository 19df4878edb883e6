package models

// MailMessage is private user-to-user mail. The session clock only needs the
// unread count; the mail door shows the rest.
type MailMessage struct {
	BaseModel
	FromUserID string `gorm:"type:uuid;index" json:"from_user_id"`
	ToUserID   string `gorm:"type:uuid;not null;index" json:"to_user_id"`
	FromHandle string `json:"from_handle"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Read       bool   `gorm:"not null;default:false" json:"read"`
}
