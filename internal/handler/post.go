package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/metrics"
	"github.com/sakif/planttoucher/internal/repository"
	"github.com/sakif/planttoucher/internal/service"
	"github.com/sakif/planttoucher/internal/session"
)

// PostHandler serves the feed, single posts, the profile page, and the post
// mutations (create, like, delete).
type PostHandler struct {
	posts     *service.PostService
	users     *service.AuthService
	render    *Renderer
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewPostHandler(
	posts *service.PostService,
	users *service.AuthService,
	render *Renderer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *PostHandler {
	return &PostHandler{
		posts:     posts,
		users:     users,
		render:    render,
		collector: collector,
		logger:    logger,
	}
}

// HandleHome renders the feed.
//
// HTTP: GET /  and  GET /{order}
//
// The bare path is newest-first; /{order} accepts the two alternates. An
// unknown segment is a 404, not a silent fallback — /garbage shouldn't look
// like a working page.
func (h *PostHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	order := repository.OrderNewest
	if seg := r.PathValue("order"); seg != "" {
		parsed, ok := repository.ParseOrder(seg)
		if !ok {
			http.NotFound(w, r)
			return
		}
		order = parsed
	}

	posts, err := h.posts.List(r.Context(), order)
	if err != nil {
		h.render.fail(w, r, err)
		return
	}

	h.render.Render(w, r, "home", map[string]any{
		"Posts": posts,
		"Order": string(order),
	})
}

// HandlePost renders a single post.
//
// HTTP: GET /post/{id}
func (h *PostHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.render.fail(w, r, err)
		return
	}

	h.render.Render(w, r, "post", map[string]any{"Post": post})
}

// HandleCreate creates a post for the logged-in viewer and redirects home.
//
// HTTP: POST /posts (auth required)
//
// The author comes from the resolved viewer, never from the form.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer := session.ViewerFromContext(r.Context())

	_, err := h.posts.Create(r.Context(),
		viewer.UserID, viewer.Username,
		r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		h.render.fail(w, r, err)
		return
	}

	h.collector.RecordPostCreated()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLike bumps a post's like count by one and returns the updated post
// as JSON (the feed's like buttons update in place).
//
// HTTP: POST /like/{id}
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := h.posts.Like(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.render.fail(w, r, err)
		return
	}

	h.collector.RecordLike()
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post if — and only if — the viewer is its author.
//
// HTTP: POST /delete/{id} (auth required)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	viewer := session.ViewerFromContext(r.Context())
	if err := h.posts.Delete(r.Context(), id, viewer.Username); err != nil {
		h.render.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleProfile renders the viewer's own page: account details plus their
// posts, newest first.
//
// HTTP: GET /profile (auth required)
func (h *PostHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	viewer := session.ViewerFromContext(r.Context())

	user, err := h.users.GetUser(r.Context(), viewer.UserID)
	if err != nil {
		h.render.fail(w, r, err)
		return
	}

	userPosts, err := h.posts.ListByAuthor(r.Context(), user.Username)
	if err != nil {
		h.render.fail(w, r, err)
		return
	}

	h.render.Render(w, r, "profile", map[string]any{
		"UserObject": user,
		"UserPosts":  userPosts,
	})
}
