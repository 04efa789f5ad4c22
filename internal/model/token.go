package model

import "time"

// AccessToken is the server-side record of an opaque bearer token. Only the
// SHA-256 of the random part is stored; the plaintext presented to clients is
// "<id>|<random>" and cannot be reconstructed from the row.
type AccessToken struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"column:user_id;index;not null"`
	TokenHash  string `gorm:"column:token_hash;size:64;uniqueIndex;not null"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
}
