package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/auth"
	"github.com/sakif/planttoucher/internal/repository/memory"
)

// The services are tested against the memory store rather than mocks: it
// implements the same repository contracts as SQLite (same conflict and
// not-found behaviour), so these tests exercise real interactions without a
// database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthService() (*AuthService, *memory.Store) {
	store := memory.New()
	return NewAuthService(store, testLogger()), store
}

// =========================================================================
// LOCAL REGISTRATION / LOGIN
// =========================================================================

func TestRegisterLocal(t *testing.T) {
	svc, _ := newAuthService()

	user, err := svc.RegisterLocal(context.Background(), "alice")
	if err != nil {
		t.Fatalf("RegisterLocal() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("RegisterLocal() did not assign an ID")
	}
	if user.HashedGoogleID != nil {
		t.Error("a local account must not carry an identity digest")
	}
}

func TestRegisterLocal_SanitizesUsername(t *testing.T) {
	svc, _ := newAuthService()

	// "<b>alice</b>" and "alice" are the same name once sanitized — the
	// second registration must collide.
	user, err := svc.RegisterLocal(context.Background(), "  <b>alice</b>  ")
	if err != nil {
		t.Fatalf("RegisterLocal() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}

	_, err = svc.RegisterLocal(context.Background(), "alice")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("RegisterLocal() after sanitized twin = %v, want ErrConflict", err)
	}
}

func TestRegisterLocal_Validation(t *testing.T) {
	svc, _ := newAuthService()

	tests := []struct {
		name     string
		username string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"markup only", "<script></script>"},
		{"too long", strings.Repeat("a", MaxUsernameLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterLocal(context.Background(), tt.username)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("RegisterLocal(%q) error = %v, want ErrValidation", tt.username, err)
			}
		})
	}
}

func TestRegisterLocal_Duplicate(t *testing.T) {
	svc, _ := newAuthService()

	if _, err := svc.RegisterLocal(context.Background(), "alice"); err != nil {
		t.Fatalf("RegisterLocal() first error = %v", err)
	}
	_, err := svc.RegisterLocal(context.Background(), "alice")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("RegisterLocal() duplicate error = %v, want ErrConflict", err)
	}
}

func TestLoginLocal(t *testing.T) {
	svc, _ := newAuthService()
	registered, err := svc.RegisterLocal(context.Background(), "alice")
	if err != nil {
		t.Fatalf("RegisterLocal() error = %v", err)
	}

	user, err := svc.LoginLocal(context.Background(), "alice")
	if err != nil {
		t.Fatalf("LoginLocal() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("LoginLocal() resolved ID %d, want %d", user.ID, registered.ID)
	}
}

func TestLoginLocal_UnknownUser(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.LoginLocal(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("LoginLocal() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// GOOGLE FLOW
// =========================================================================

func TestResolveGoogle_NewIdentity(t *testing.T) {
	svc, _ := newAuthService()

	gUser := &auth.GoogleUser{Sub: "118234567890123456789", Name: "Alice"}
	user, hash, err := svc.ResolveGoogle(context.Background(), gUser)
	if err != nil {
		t.Fatalf("ResolveGoogle() error = %v", err)
	}
	// Unknown identity: no user yet, but the digest comes back so the caller
	// can park it for the claim step.
	if user != nil {
		t.Errorf("ResolveGoogle() returned a user for a new identity: %+v", user)
	}
	if hash == "" {
		t.Error("ResolveGoogle() returned an empty digest")
	}
	if hash == gUser.Sub {
		t.Error("ResolveGoogle() leaked the raw subject as the digest")
	}
}

func TestResolveGoogle_ReturningUser(t *testing.T) {
	svc, _ := newAuthService()
	gUser := &auth.GoogleUser{Sub: "118234567890123456789"}

	// First visit: resolve, claim.
	_, hash, err := svc.ResolveGoogle(context.Background(), gUser)
	if err != nil {
		t.Fatalf("ResolveGoogle() first error = %v", err)
	}
	claimed, err := svc.ClaimUsername(context.Background(), "alice", hash)
	if err != nil {
		t.Fatalf("ClaimUsername() error = %v", err)
	}

	// Second visit: same Google account resolves straight to the same row.
	user, _, err := svc.ResolveGoogle(context.Background(), gUser)
	if err != nil {
		t.Fatalf("ResolveGoogle() second error = %v", err)
	}
	if user == nil {
		t.Fatal("ResolveGoogle() did not recognise a returning identity")
	}
	if user.ID != claimed.ID {
		t.Errorf("ResolveGoogle() resolved ID %d, want %d", user.ID, claimed.ID)
	}
}

func TestResolveGoogle_NoSubject(t *testing.T) {
	svc, _ := newAuthService()

	if _, _, err := svc.ResolveGoogle(context.Background(), &auth.GoogleUser{}); err == nil {
		t.Error("ResolveGoogle() accepted a profile with no subject")
	}
	if _, _, err := svc.ResolveGoogle(context.Background(), nil); err == nil {
		t.Error("ResolveGoogle() accepted a nil profile")
	}
}

func TestClaimUsername_NoPendingIdentity(t *testing.T) {
	svc, _ := newAuthService()

	// Reaching the claim step without a parked digest (cold visit, replay,
	// expired session) is its own error category, not a validation failure.
	_, err := svc.ClaimUsername(context.Background(), "alice", "")
	if !errors.Is(err, apperror.ErrPendingAuth) {
		t.Errorf("ClaimUsername() error = %v, want ErrPendingAuth", err)
	}
}

func TestClaimUsername_TakenName(t *testing.T) {
	svc, _ := newAuthService()

	if _, err := svc.RegisterLocal(context.Background(), "alice"); err != nil {
		t.Fatalf("RegisterLocal() error = %v", err)
	}

	_, err := svc.ClaimUsername(context.Background(), "alice", auth.HashIdentity("some-subject"))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("ClaimUsername() taken-name error = %v, want ErrConflict", err)
	}
}

func TestClaimUsername_BindsIdentity(t *testing.T) {
	svc, store := newAuthService()

	hash := auth.HashIdentity("some-subject")
	user, err := svc.ClaimUsername(context.Background(), "alice", hash)
	if err != nil {
		t.Fatalf("ClaimUsername() error = %v", err)
	}

	stored, err := store.GetUserByGoogleHash(context.Background(), hash)
	if err != nil {
		t.Fatalf("GetUserByGoogleHash() error = %v", err)
	}
	if stored.ID != user.ID {
		t.Errorf("digest resolves to ID %d, want %d", stored.ID, user.ID)
	}
}

// =========================================================================
// ACCOUNT LIFECYCLE
// =========================================================================

func TestGetUser_Anonymous(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.GetUser(context.Background(), 0)
	if !errors.Is(err, apperror.ErrNotAuthenticated) {
		t.Errorf("GetUser(0) error = %v, want ErrNotAuthenticated", err)
	}
}

func TestUnregister(t *testing.T) {
	svc, _ := newAuthService()
	user, err := svc.RegisterLocal(context.Background(), "alice")
	if err != nil {
		t.Fatalf("RegisterLocal() error = %v", err)
	}

	if err := svc.Unregister(context.Background(), user.ID); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	// The username is free again.
	if _, err := svc.RegisterLocal(context.Background(), "alice"); err != nil {
		t.Errorf("RegisterLocal() after unregister error = %v", err)
	}
}

func TestUnregister_Anonymous(t *testing.T) {
	svc, _ := newAuthService()

	err := svc.Unregister(context.Background(), 0)
	if !errors.Is(err, apperror.ErrNotAuthenticated) {
		t.Errorf("Unregister(0) error = %v, want ErrNotAuthenticated", err)
	}
}
