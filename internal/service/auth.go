// Package service contains the business logic layer: auth flow rules and
// post rules, HTTP-agnostic and storage-agnostic.
//
// Handlers parse requests and render responses; repositories move rows.
// Everything in between — what counts as a valid username, who may delete a
// post, what happens when a Google identity has no local account yet — lives
// here, reachable by plain function calls from tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/auth"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
	"github.com/sakif/planttoucher/internal/sanitize"
)

const MaxUsernameLength = 32

// AuthService owns both authentication strategies: local username
// registration/login and the Google OAuth registration/login flow.
type AuthService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, logger: logger}
}

// validUsername sanitizes and validates a requested username. The sanitized
// form is what gets stored and checked for uniqueness — "<b>alice</b>" and
// "alice" are the same name.
func validUsername(raw string) (string, error) {
	username := sanitize.Text(raw)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	return username, nil
}

// RegisterLocal creates an account for a plain (non-OAuth) username.
// A taken username comes back as the duplicate-username conflict, straight
// from the storage constraint.
func (s *AuthService) RegisterLocal(ctx context.Context, rawUsername string) (*model.User, error) {
	username, err := validUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// LoginLocal resolves a username to its account. In the local strategy there
// is nothing more to verify — the original system authenticates by username
// alone, and this revision keeps that contract.
func (s *AuthService) LoginLocal(ctx context.Context, rawUsername string) (*model.User, error) {
	username, err := validUsername(rawUsername)
	if err != nil {
		return nil, err
	}
	return s.users.GetUserByUsername(ctx, username)
}

// ResolveGoogle takes a verified Google profile (post token-exchange) and
// decides which side of the registration fork this login lands on.
//
// Returns (user, hash, nil) for a returning user, or (nil, hash, nil) when
// the identity is new — the caller then parks hash in the session's
// pending-auth slot and sends the visitor to the username-claim form.
func (s *AuthService) ResolveGoogle(ctx context.Context, gUser *auth.GoogleUser) (*model.User, string, error) {
	if gUser == nil || gUser.Sub == "" {
		return nil, "", fmt.Errorf("service/auth: google profile must carry a subject")
	}

	hash := auth.HashIdentity(gUser.Sub)

	user, err := s.users.GetUserByGoogleHash(ctx, hash)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, hash, nil
		}
		return nil, "", err
	}

	s.logger.Info("returning google user",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, hash, nil
}

// ClaimUsername finishes a pending OAuth registration: binds the parked
// identity digest to a freshly created account.
//
// An empty pendingHash means the visitor reached the claim form without a
// verified identity waiting (cold visit, replay, expired session) —
// MissingPendingAuth, the caller redirects to the error view.
func (s *AuthService) ClaimUsername(ctx context.Context, rawUsername, pendingHash string) (*model.User, error) {
	if pendingHash == "" {
		return nil, apperror.MissingPendingAuth()
	}

	username, err := validUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       username,
		HashedGoogleID: &pendingHash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("google user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// GetUser returns the account for an internal id (the profile page's
// backing lookup).
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if id == 0 {
		return nil, apperror.NotAuthenticated("viewing a profile")
	}
	return s.users.GetUserByID(ctx, id)
}

// Unregister deletes the account. Posts are deliberately left behind — the
// repository orphans them, and the denormalized author name keeps them
// readable.
func (s *AuthService) Unregister(ctx context.Context, userID int64) error {
	if userID == 0 {
		return apperror.NotAuthenticated("unregistering")
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user unregistered", slog.Int64("userID", userID))
	return nil
}
