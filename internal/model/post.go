package model

import "time"

// Post is a single "touch" on the feed.
//
// AUTHORSHIP IS RECORDED TWICE, ON PURPOSE:
//   - UserID is the authoritative foreign key to the users table. It is what
//     ties the post to an account while the account exists.
//   - Username is a denormalized copy of the author's name at creation time.
//     When an account is unregistered its posts are NOT cascade-deleted; the
//     FK goes NULL and the stored username keeps the orphaned post
//     displayable (and keeps the delete-permission check well-defined).
//
// Likes is a plain counter: it only ever goes up, one per like request, and
// nothing deduplicates repeat likes from the same viewer.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    *int64    `json:"-"`        // nil once the author unregisters
	Username  string    `json:"username"` // author display name, survives the author
	Timestamp time.Time `json:"timestamp"`
	Likes     int64     `json:"likes"`
}
