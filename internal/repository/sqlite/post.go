package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
)

// compile-time check that *DB implements repository.PostRepository
var _ repository.PostRepository = (*DB)(nil)

const postColumns = `id, title, content, user_id, username, timestamp, likes`

// CreatePost inserts a new post and fills in ID and Timestamp. The id comes
// from AUTOINCREMENT, so insertion order and id order always agree — that is
// what makes "oldest first" and tie-breaking well-defined.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.Timestamp = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, user_id, username, timestamp, likes)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		post.Title,
		post.Content,
		post.UserID,
		post.Username,
		post.Timestamp,
	)
	if err != nil {
		return apperror.Storage("inserting post", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading inserted post id", err)
	}
	post.ID = id
	post.Likes = 0

	return nil
}

func (db *DB) GetPostByID(ctx context.Context, id int64) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row, id)
}

// ListPosts returns every post under the requested ordering. All three
// orderings use id as the tie-breaker so results are stable.
func (db *DB) ListPosts(ctx context.Context, order repository.Order) ([]model.Post, error) {
	var orderBy string
	switch order {
	case repository.OrderOldest:
		orderBy = "id ASC"
	case repository.OrderMostLiked:
		orderBy = "likes DESC, id ASC"
	default: // OrderNewest
		orderBy = "id DESC"
	}

	// orderBy is chosen from the fixed set above, never from user input.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY `+orderBy)
	if err != nil {
		return nil, apperror.Storage("listing posts", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListPostsByUsername returns one author's posts, newest first (the profile
// view).
func (db *DB) ListPostsByUsername(ctx context.Context, username string) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE username = ? ORDER BY id DESC`,
		username)
	if err != nil {
		return nil, apperror.Storage("listing posts by author", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// LikePost adds exactly one like in a single UPDATE. Incrementing in SQL
// rather than read-modify-write in Go means two concurrent likes can't lose
// one.
func (db *DB) LikePost(ctx context.Context, id int64) (*model.Post, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return nil, apperror.Storage("liking post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperror.Storage("counting liked posts", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("post", id)
	}

	return db.GetPostByID(ctx, id)
}

func (db *DB) DeletePost(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return apperror.Storage("deleting post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("counting deleted posts", err)
	}
	if n == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func scanPost(row *sql.Row, id int64) (*model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.Username, &p.Timestamp, &p.Likes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, apperror.Storage("querying post", err)
	}
	return &p, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.Username, &p.Timestamp, &p.Likes); err != nil {
			return nil, apperror.Storage("scanning post row", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating post rows", err)
	}
	return posts, nil
}
