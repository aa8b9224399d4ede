// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created two ways: local registration (a user just claims a
// username) and Google OAuth (the user signs in with Google and then claims a
// username). Both paths share one table; the only difference is whether
// HashedGoogleID is set.
//
// WHY HashedGoogleID *string (not string)?
// Locally-registered users have no external identity at all. A NULL column
// distinguishes "no Google account linked" from "linked", and it lets the
// UNIQUE constraint on hashed_google_id ignore local users (SQLite treats
// NULLs as distinct from each other).
//
// We never store the Google subject itself, only a one-way SHA3-256 digest of
// it. A database leak then reveals nothing that can be replayed against
// Google's APIs.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`    // unique, sanitized, case-sensitive
	HashedGoogleID *string   `json:"-"`           // digest of the verified Google subject; nil for local accounts
	AvatarURL      string    `json:"avatarUrl"`   // empty means "derive from username letter"
	MemberSince    time.Time `json:"memberSince"` // set once at creation
}

// Avatar returns the URL to render for this user's profile picture.
// Users without an explicit avatar fall back to the generated letter avatar.
func (u *User) Avatar() string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return "/avatar/" + u.Username
}
