package models

import (
	"time"
)

// Session is the authenticated identity reconstructed from a signed session
// token on every request. Nothing about it is persisted server-side.
type Session struct {
	InstallationID string    `json:"installation_id"`
	UserLogin      string    `json:"user_login"`
	UserID         int64     `json:"user_id,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
