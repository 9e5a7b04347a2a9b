package entity

import "time"

// ApiToken represents the api_tokens table (terminal/workstation tokens).
type ApiToken struct {
	TokenID   uint       `gorm:"column:token_id;primaryKey;autoIncrement" json:"token_id,omitempty"`
	Token     string     `gorm:"column:token;type:varchar(128);not null;uniqueIndex" json:"token"`
	Label     string     `gorm:"column:label;type:varchar(255)" json:"label,omitempty"`
	Revoked   bool       `gorm:"column:revoked;not null;default:false" json:"revoked"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (ApiToken) TableName() string {
	return "api_tokens"
}
