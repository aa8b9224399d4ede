package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
	"github.com/sakif/planttoucher/internal/sanitize"
)

const (
	MaxTitleLength   = 100
	MaxContentLength = 4000
)

// PostService handles the business rules for touches: creation, feed
// ordering, likes, and the author-only delete.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// List returns the feed under the requested ordering (newest first when the
// zero Order is passed — the repository's default branch).
func (s *PostService) List(ctx context.Context, order repository.Order) ([]model.Post, error) {
	return s.posts.ListPosts(ctx, order)
}

// ListByAuthor returns one user's posts for the profile view.
func (s *PostService) ListByAuthor(ctx context.Context, username string) ([]model.Post, error) {
	return s.posts.ListPostsByUsername(ctx, username)
}

// Get returns a single post by id.
func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	return s.posts.GetPostByID(ctx, id)
}

// Create validates and saves a new post for the given author.
//
// The author arguments come from the resolved viewer, never from the form —
// a request can't post as somebody else by naming them. An unresolved author
// (anonymous request) is NotAuthenticated.
func (s *PostService) Create(ctx context.Context, authorID int64, authorUsername, title, content string) (*model.Post, error) {
	if authorID == 0 || authorUsername == "" {
		return nil, apperror.NotAuthenticated("creating a post")
	}

	title = sanitize.Text(title)
	content = sanitize.Text(content)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	post := &model.Post{
		Title:    title,
		Content:  content,
		UserID:   &authorID,
		Username: authorUsername,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.Int64("postID", post.ID),
		slog.String("author", post.Username),
	)
	return post, nil
}

// Like adds exactly one like and returns the updated post.
// Nothing stops the same viewer liking a post twice; each call is +1.
func (s *PostService) Like(ctx context.Context, id int64) (*model.Post, error) {
	return s.posts.LikePost(ctx, id)
}

// Delete removes a post, but only for its author: the requester's resolved
// username must equal the post's stored author name. Anyone else gets
// Forbidden and the post stays.
func (s *PostService) Delete(ctx context.Context, id int64, requesterUsername string) error {
	if requesterUsername == "" {
		return apperror.NotAuthenticated("deleting a post")
	}

	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return err
	}

	if post.Username != requesterUsername {
		return apperror.Forbidden("only the author may delete a post")
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.Int64("postID", id),
		slog.String("author", requesterUsername),
	)
	return nil
}
