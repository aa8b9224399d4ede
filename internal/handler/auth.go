package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/auth"
	"github.com/sakif/planttoucher/internal/metrics"
	"github.com/sakif/planttoucher/internal/service"
	"github.com/sakif/planttoucher/internal/session"
)

// AuthHandler manages both login strategies and the session lifecycle.
//
// google and state are nil when OAuth isn't configured; the server only
// registers the OAuth routes when they're present, so the handlers can
// assume them.
type AuthHandler struct {
	users     *service.AuthService
	google    *auth.GoogleProvider
	state     *auth.StateSigner
	sessions  *session.Manager
	render    *Renderer
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewAuthHandler(
	users *service.AuthService,
	google *auth.GoogleProvider,
	state *auth.StateSigner,
	sessions *session.Manager,
	render *Renderer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		google:    google,
		state:     state,
		sessions:  sessions,
		render:    render,
		collector: collector,
		logger:    logger,
	}
}

// HandleRegisterPage renders the combined login/register view. A failed
// registration redirects back here with the message in the query string
// (redirect-with-message keeps the POST un-resubmittable).
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "loginRegister", map[string]any{
		"RegError": r.URL.Query().Get("error"),
	})
}

// HandleLoginPage renders the same view with a login error, if any.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "loginRegister", map[string]any{
		"LoginError": r.URL.Query().Get("error"),
	})
}

// HandleRegister processes a local registration.
//
// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_, err := h.users.RegisterLocal(r.Context(), r.FormValue("register_username"))
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrValidation) {
			h.render.Render(w, r, "loginRegister", map[string]any{
				"RegError": userMessage(err),
			})
			return
		}
		h.render.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLogin processes a local login: resolve the username, establish the
// session.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.LoginLocal(r.Context(), r.FormValue("login_username"))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			h.render.Render(w, r, "loginRegister", map[string]any{
				"LoginError": "User does not exist",
			})
			return
		}
		h.render.fail(w, r, err)
		return
	}

	if err := h.sessions.Establish(w, r, user); err != nil {
		h.render.fail(w, r, err)
		return
	}

	h.collector.RecordLogin("local")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGoogleLogin starts the OAuth flow: mint a signed state, send the
// browser to Google.
//
// HTTP: GET /auth/google
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := h.state.Sign()
	if err != nil {
		h.render.fail(w, r, err)
		return
	}
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes (or begins) the OAuth flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// Flow:
//  1. Verify the state signature (CSRF check — proves we issued it).
//  2. Exchange the code for a verified Google profile.
//  3. Known identity digest → establish the session, go home.
//  4. Unknown digest → park it in the pending-auth slot and send the
//     visitor to the username-claim form.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.state.Verify(r.URL.Query().Get("state")); err != nil {
		h.logger.Warn("oauth callback: bad state", slog.String("error", err.Error()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The user declined on Google's consent screen.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/login?error=Google+sign-in+was+cancelled", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	user, hash, err := h.users.ResolveGoogle(r.Context(), gUser)
	if err != nil {
		h.render.fail(w, r, err)
		return
	}

	if user != nil {
		if err := h.sessions.Establish(w, r, user); err != nil {
			h.render.fail(w, r, err)
			return
		}
		h.collector.RecordLogin("google")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// First visit from this Google account: identity verified, username not
	// chosen yet.
	if err := h.sessions.SetPending(w, r, hash); err != nil {
		h.render.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/registerUsername", http.StatusSeeOther)
}

// HandleClaimPage renders the username-claim form for a pending OAuth
// registration. Arriving here without a pending identity is the
// missing-pending-auth case.
//
// HTTP: GET /registerUsername
func (h *AuthHandler) HandleClaimPage(w http.ResponseWriter, r *http.Request) {
	if !session.FromContext(r.Context()).HasPendingAuth() {
		http.Redirect(w, r, "/error", http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, "registerUsername", map[string]any{
		"RegError": r.URL.Query().Get("error"),
	})
}

// HandleClaim binds the pending identity to a newly chosen username and logs
// the user in.
//
// HTTP: POST /registerUsername
func (h *AuthHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var pendingHash string
	if sess != nil {
		pendingHash = sess.PendingHash
	}

	user, err := h.users.ClaimUsername(r.Context(), r.FormValue("username"), pendingHash)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrValidation) {
			h.render.Render(w, r, "registerUsername", map[string]any{
				"RegError": userMessage(err),
			})
			return
		}
		h.render.fail(w, r, err)
		return
	}

	if err := h.sessions.Establish(w, r, user); err != nil {
		h.render.fail(w, r, err)
		return
	}

	h.collector.RecordLogin("google")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears all session-held identity and returns to the feed.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.render.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGoogleLogout renders the external-logout confirmation view: sign out
// of this site only, or also of Google.
//
// HTTP: GET /googleLogout
func (h *AuthHandler) HandleGoogleLogout(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "googleLogout", nil)
}

// HandleUnregister deletes the viewer's account. Their posts stay, orphaned.
//
// HTTP: POST /unregister (auth required)
func (h *AuthHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	viewer := session.ViewerFromContext(r.Context())

	if err := h.users.Unregister(r.Context(), viewer.UserID); err != nil {
		h.render.fail(w, r, err)
		return
	}
	if err := h.sessions.Clear(w, r); err != nil {
		h.render.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleErrorPage renders the generic error view.
//
// HTTP: GET /error
func (h *AuthHandler) HandleErrorPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "error", nil)
}

// userMessage extracts the human-readable message from a domain error for
// form re-rendering.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong"
}
