// Package session holds authentication state server-side and resolves each
// request to a viewer identity.
//
// The browser carries exactly one thing: an opaque random key in an HttpOnly
// cookie. Everything else — user id, logged-in flag, display name, avatar,
// the pending-auth slot — lives in a sessions row keyed by that value. The
// client can present the key but can neither read nor fabricate the state
// behind it.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/repository"
)

// CookieName is the session cookie's name.
const CookieName = "session_id"

// Manager creates, loads, mutates, and destroys sessions.
type Manager struct {
	repo   repository.SessionRepository
	ttl    time.Duration
	secure bool // set the Secure flag on cookies (HTTPS deployments)
}

func NewManager(repo repository.SessionRepository, secure bool) *Manager {
	return &Manager{
		repo:   repo,
		ttl:    24 * time.Hour,
		secure: secure,
	}
}

// load resolves the request's cookie to a session, or nil for anonymous
// requests with no (valid, unexpired) session. An unknown or expired key is
// not an error — it's just an anonymous visitor with a stale cookie.
func (m *Manager) load(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := m.repo.GetSession(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// begin creates a fresh anonymous session row and hands its key to the
// browser. The key is a v4 UUID: 122 random bits, unguessable, meaningless.
func (m *Manager) begin(ctx context.Context, w http.ResponseWriter) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// ensure returns the request's session, creating one if the request has
// none. Handlers that are about to write session state call this.
func (m *Manager) ensure(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	if sess := FromContext(r.Context()); sess != nil {
		return sess, nil
	}
	return m.begin(r.Context(), w)
}

// Establish marks the session as belonging to user: the Anonymous (or
// PendingExternalAuth) → Authenticated transition. The pending slot is
// cleared — a claim that reached this point has consumed it.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, user *model.User) error {
	sess, err := m.ensure(w, r)
	if err != nil {
		return err
	}

	sess.UserID = user.ID
	sess.LoggedIn = true
	sess.UserName = user.Username
	sess.UserPfp = user.Avatar()
	sess.PendingHash = ""

	return m.repo.UpdateSession(r.Context(), sess)
}

// SetPending parks a verified external identity digest in the session's
// pending-auth slot: the Anonymous → PendingExternalAuth transition. The
// user stays logged out until they claim a username.
func (m *Manager) SetPending(w http.ResponseWriter, r *http.Request, hash string) error {
	sess, err := m.ensure(w, r)
	if err != nil {
		return err
	}

	sess.PendingHash = hash
	sess.UserID = 0
	sess.LoggedIn = false
	sess.UserName = ""
	sess.UserPfp = ""

	return m.repo.UpdateSession(r.Context(), sess)
}

// Clear destroys the session: the → Anonymous transition. The row is deleted
// (not just blanked) and the cookie expired, so the old key is dead even if
// it leaked.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := FromContext(r.Context())
	if sess == nil {
		return nil
	}

	if err := m.repo.DeleteSession(r.Context(), sess.ID); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
