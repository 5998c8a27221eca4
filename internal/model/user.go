// Package model holds the records shared by the repository, service and
// handler layers: accounts, profiles, social grants and generation history.
package model

import "time"

// User represents a registered account.
//
// Accounts are local (username + email + bcrypt password). Social platform
// access is NOT an identity here: a Facebook grant is stored separately as a
// SocialCredential owned by the user.
//
// PasswordHash is tagged json:"-" so it never leaves the server, even if a
// handler serialises the whole struct by mistake.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the user-facing metadata attached one-to-one to a User.
// It is created lazily the first time it is read.
type Profile struct {
	UserID    string    `json:"userId"    db:"user_id"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	Bio       string    `json:"bio"       db:"bio"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
