package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user and fills in ID and MemberSince.
//
// The INSERT is allowed to hit the UNIQUE constraints on username and
// hashed_google_id; that violation is translated to the duplicate-username
// conflict here rather than checked for up front. Check-then-insert would
// leave a window where two requests both pass the check.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.MemberSince = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, hashed_google_id, avatar_url, member_since)
		 VALUES (?, ?, ?, ?)`,
		user.Username,
		user.HashedGoogleID,
		user.AvatarURL,
		user.MemberSince,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateUsername(user.Username)
		}
		return apperror.Storage("inserting user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading inserted user id", err)
	}
	user.ID = id

	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, hashed_google_id, avatar_url, member_since
		 FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, hashed_google_id, avatar_url, member_since
		 FROM users WHERE username = ?`, username)
}

// GetUserByGoogleHash resolves a returning OAuth user by their identity digest.
func (db *DB) GetUserByGoogleHash(ctx context.Context, hash string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, hashed_google_id, avatar_url, member_since
		 FROM users WHERE hashed_google_id = ?`, hash)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.HashedGoogleID,
		&u.AvatarURL,
		&u.MemberSince,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
		}
		return nil, apperror.Storage("querying user", err)
	}
	return &u, nil
}

// DeleteUser removes the user row. The ON DELETE SET NULL on posts.user_id
// orphans the user's posts instead of removing them.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return apperror.Storage("deleting user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("counting deleted users", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
