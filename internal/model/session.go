package model

import "time"

// Session is the server-side state behind one browser's session cookie.
//
// The cookie itself carries only the opaque random ID; everything else lives
// in this row. That keeps authentication state entirely server-side — nothing
// the client holds can be parsed or forged, only presented.
//
// The session moves through three states:
//
//	anonymous        — UserID == 0, PendingHash == ""
//	pending external — PendingHash set (Google identity verified, no username
//	                   claimed yet), UserID still 0
//	authenticated    — UserID set, LoggedIn true
//
// PendingHash is the "pending-auth slot": a verified Google identity digest
// parked here between the OAuth callback and the username-claim form. It is
// cleared the moment the claim succeeds.
type Session struct {
	ID          string // opaque random key, also the cookie value
	UserID      int64  // 0 when anonymous
	LoggedIn    bool
	UserName    string // display name, denormalized for rendering
	UserPfp     string // avatar URL, denormalized for rendering
	PendingHash string // pending-auth slot, empty unless mid-OAuth-registration
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// IsAuthenticated reports whether this session belongs to a logged-in user.
// It is a pure predicate over fields already in memory — no I/O, safe to call
// as often as rendering needs it.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.LoggedIn && s.UserID != 0
}

// HasPendingAuth reports whether a verified external identity is waiting for
// a username claim.
func (s *Session) HasPendingAuth() bool {
	return s != nil && s.PendingHash != ""
}
