package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/planttoucher/internal/model"
)

// Viewer is the resolved identity for one request: either an authenticated
// user's details or the anonymous marker (the zero value).
//
// It is computed ONCE, from session state, when the middleware runs, and then
// passed down immutably through the request context. Handlers and templates
// read it; nothing downstream mutates session fields ad hoc to communicate
// identity.
type Viewer struct {
	UserID    int64
	Username  string
	AvatarURL string
	LoggedIn  bool
}

// Anonymous reports whether this request has no authenticated user.
func (v Viewer) Anonymous() bool {
	return !v.LoggedIn
}

// contextKey is unexported so only this package can place or shadow values
// under these keys.
type contextKey int

const (
	sessionKey contextKey = iota
	viewerKey
)

// FromContext returns the request's loaded session, or nil if the request
// arrived without one.
func FromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionKey).(*model.Session)
	return sess
}

// ViewerFromContext returns the viewer resolved for this request. The zero
// Viewer (anonymous) is returned for requests outside the middleware.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey).(Viewer)
	return v
}

// Middleware loads the session referenced by the request cookie (one storage
// read per request), resolves the Viewer from it, and stores both in the
// request context.
//
// A storage failure here is NOT fatal to the request: the visitor is treated
// as anonymous and the error logged. Failing closed on every page for a
// session-table hiccup would take the whole (mostly public) site down.
func (m *Manager) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.load(r)
			if err != nil {
				logger.Error("session load failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				sess = nil
			}

			ctx := r.Context()
			if sess != nil {
				ctx = context.WithValue(ctx, sessionKey, sess)
			}
			ctx = context.WithValue(ctx, viewerKey, resolveViewer(sess))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth gates a route on an authenticated viewer; anonymous requests
// are redirected to /login rather than shown an error page.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ViewerFromContext(r.Context()).Anonymous() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// resolveViewer derives the immutable per-request identity from session
// state. Pure — no I/O, total on nil.
func resolveViewer(sess *model.Session) Viewer {
	if !sess.IsAuthenticated() {
		return Viewer{}
	}
	return Viewer{
		UserID:    sess.UserID,
		Username:  sess.UserName,
		AvatarURL: sess.UserPfp,
		LoggedIn:  true,
	}
}
