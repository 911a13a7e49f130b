package model

import "time"

// VerificationToken is a single use token. Only the SHA-256 digest of
// the token that was mailed out is stored.
type VerificationToken struct {
	ID          string     `gorm:"primaryKey;size:16" bson:"_id"`
	UserID      string     `gorm:"index;not null" bson:"user_id"`
	TokenDigest string     `gorm:"uniqueIndex;not null" bson:"token_digest"`
	Purpose     string     `gorm:"not null" bson:"purpose"`
	ExpiresAt   time.Time  `bson:"expires_at"`
	UsedAt      *time.Time `bson:"used_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	CleanupAt   *time.Time `bson:"cleanup_at,omitempty"`
	Used        bool       `bson:"used"`
}
