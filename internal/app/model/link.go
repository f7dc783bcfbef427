package model

import "time"

// Link is the sole persistent entity: one sharable secret, stored encrypted.
//
// PasswordHash is a tri-state field: nil means the link is not password
// protected, a non-empty value is an argon2id PHC string, and an empty
// string is a legacy sentinel ("protected in the UI but no real password")
// that is treated as unprotected. New rows never carry the sentinel.
type Link struct {
	ID              uint       `db:"id" gorm:"primaryKey"`
	Token           string     `db:"token" gorm:"uniqueIndex;size:32;not null"`
	EncryptedText   string     `db:"encrypted_text" gorm:"type:text;not null"`
	PasswordHash    *string    `db:"password_hash" gorm:"size:256"`
	ExpiresAt       *time.Time `db:"expires_at" gorm:"index"`
	OneTimeView     bool       `db:"one_time_view" gorm:"not null;default:false"`
	OneTimePassword bool       `db:"one_time_password" gorm:"not null;default:false"`
	ViewCount       int64      `db:"view_count" gorm:"not null;default:0"`
	PasswordUsed    bool       `db:"password_used" gorm:"not null;default:false"`
	CreatedAt       time.Time  `db:"created_at" gorm:"autoCreateTime"`
}

// IsDead reports whether the link is expired or consumed at the given time.
// It is pure; the repository's dead-delete predicate mirrors this expression
// in SQL and the two must stay in lock-step.
func (l *Link) IsDead(now time.Time) bool {
	if l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
		return true
	}
	if l.OneTimeView && l.ViewCount > 0 {
		return true
	}
	if l.OneTimePassword && l.PasswordUsed {
		return true
	}
	return false
}

// PasswordProtected reports whether disclosure requires a password. The empty
// sentinel hash counts as unprotected.
func (l *Link) PasswordProtected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}
