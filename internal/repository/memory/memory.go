// Package memory implements the repository interfaces on in-process maps.
//
// This is the storage model the first revision of the app actually shipped
// with (process-wide slices as the "database"), kept as a proper injectable
// implementation. The service tests run against it, and it makes `planttoucher`
// runnable with zero files on disk.
//
// A single mutex guards everything. That is deliberately crude: this backend
// exists for tests and prototyping, not throughput.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
)

// Store holds all three record kinds behind one lock.
type Store struct {
	mu         sync.Mutex
	users      map[int64]*model.User
	posts      map[int64]*model.Post
	sessions   map[string]*model.Session
	nextUserID int64
	nextPostID int64
}

var (
	_ repository.UserRepository    = (*Store)(nil)
	_ repository.PostRepository    = (*Store)(nil)
	_ repository.SessionRepository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:      make(map[int64]*model.User),
		posts:      make(map[int64]*model.Post),
		sessions:   make(map[string]*model.Session),
		nextUserID: 1,
		nextPostID: 1,
	}
}

// CreateUser mirrors the SQLite behaviour: uniqueness of username and
// identity digest is checked at insert time, under the same lock that
// performs the insert, so there is no check-then-act window here either.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return apperror.DuplicateUsername(user.Username)
		}
		if user.HashedGoogleID != nil && u.HashedGoogleID != nil &&
			*u.HashedGoogleID == *user.HashedGoogleID {
			return apperror.DuplicateUsername(user.Username)
		}
	}

	user.ID = s.nextUserID
	s.nextUserID++
	user.MemberSince = time.Now().UTC()

	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	copied := *u
	return &copied, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (s *Store) GetUserByGoogleHash(ctx context.Context, hash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.HashedGoogleID != nil && *u.HashedGoogleID == hash {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

// DeleteUser orphans the user's posts the same way the SQL FK does: the
// user_id link is cleared, the denormalized username stays.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(s.users, id)
	for _, p := range s.posts {
		if p.UserID != nil && *p.UserID == id {
			p.UserID = nil
		}
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = s.nextPostID
	s.nextPostID++
	post.Timestamp = time.Now().UTC()
	post.Likes = 0

	copied := *post
	s.posts[post.ID] = &copied
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	copied := *p
	return &copied, nil
}

func (s *Store) ListPosts(ctx context.Context, order repository.Order) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, *p)
	}

	switch order {
	case repository.OrderOldest:
		sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	case repository.OrderMostLiked:
		sort.Slice(posts, func(i, j int) bool {
			if posts[i].Likes != posts[j].Likes {
				return posts[i].Likes > posts[j].Likes
			}
			return posts[i].ID < posts[j].ID
		})
	default:
		sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	}

	return posts, nil
}

func (s *Store) ListPostsByUsername(ctx context.Context, username string) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := []model.Post{}
	for _, p := range s.posts {
		if p.Username == username {
			posts = append(posts, *p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts, nil
}

func (s *Store) LikePost(ctx context.Context, id int64) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	p.Likes++
	copied := *p
	return &copied, nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.ExpiresAt.Before(time.Now()) {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "session not found"}
	}
	copied := *sess
	return &copied, nil
}

func (s *Store) UpdateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "session not found"}
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
