// Package repository declares the storage contracts the rest of the
// application programs against. Two implementations exist: sqlite (the real
// one) and memory (the original prototype's backing store, kept alive for
// service tests).
package repository

import (
	"context"

	"github.com/sakif/planttoucher/internal/model"
)

// Order selects the feed ordering for post listings.
type Order string

const (
	// OrderNewest is the default feed: latest touch first.
	OrderNewest Order = "newest"
	// OrderOldest lists in insertion order.
	OrderOldest Order = "oldest"
	// OrderMostLiked sorts by like count; ties fall back to insertion order
	// so the result is stable across calls.
	OrderMostLiked Order = "mostLiked"
)

// ParseOrder maps a URL segment to an Order. ok is false for anything that
// isn't one of the three recognised orderings.
func ParseOrder(s string) (Order, bool) {
	switch Order(s) {
	case OrderNewest, OrderOldest, OrderMostLiked:
		return Order(s), true
	}
	return "", false
}

type UserRepository interface {
	// CreateUser inserts the user and fills in ID and MemberSince. A taken
	// username surfaces as apperror.ErrConflict (from the unique constraint,
	// not from a pre-check).
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// GetUserByGoogleHash resolves a returning OAuth user by identity digest.
	GetUserByGoogleHash(ctx context.Context, hash string) (*model.User, error)
	// DeleteUser removes the user row. Posts are not cascaded; their user_id
	// goes NULL and the denormalized username stays.
	DeleteUser(ctx context.Context, id int64) error
}

type PostRepository interface {
	// CreatePost inserts the post and fills in ID and Timestamp.
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, order Order) ([]model.Post, error)
	ListPostsByUsername(ctx context.Context, username string) ([]model.Post, error)
	// LikePost adds exactly one like in a single atomic statement and
	// returns the updated post. apperror.ErrNotFound if the id doesn't exist.
	LikePost(ctx context.Context, id int64) (*model.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSession returns apperror.ErrNotFound for unknown or expired keys.
	GetSession(ctx context.Context, id string) (*model.Session, error)
	UpdateSession(ctx context.Context, session *model.Session) error
	DeleteSession(ctx context.Context, id string) error
}
