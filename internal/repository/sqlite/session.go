package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// CreateSession-related note: the session row is keyed by the opaque cookie
// value itself, so "look up the cookie" is a single primary-key read.

func (db *DB) CreateSession(ctx context.Context, s *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, logged_in, user_name, user_pfp, pending_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.LoggedIn, s.UserName, s.UserPfp, s.PendingHash, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return apperror.Storage("inserting session", err)
	}
	return nil
}

// GetSession returns the session for the opaque key, treating expired rows as
// absent.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, logged_in, user_name, user_pfp, pending_hash, created_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`,
		id, time.Now().UTC(),
	).Scan(&s.ID, &s.UserID, &s.LoggedIn, &s.UserName, &s.UserPfp, &s.PendingHash, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "session not found"}
		}
		return nil, apperror.Storage("querying session", err)
	}
	return &s, nil
}

func (db *DB) UpdateSession(ctx context.Context, s *model.Session) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE sessions
		 SET user_id = ?, logged_in = ?, user_name = ?, user_pfp = ?, pending_hash = ?, expires_at = ?
		 WHERE id = ?`,
		s.UserID, s.LoggedIn, s.UserName, s.UserPfp, s.PendingHash, s.ExpiresAt, s.ID,
	)
	if err != nil {
		return apperror.Storage("updating session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("counting updated sessions", err)
	}
	if n == 0 {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "session not found"}
	}
	return nil
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return apperror.Storage("deleting session", err)
	}
	return nil
}
