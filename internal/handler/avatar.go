package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/planttoucher/internal/avatar"
)

// AvatarHandler serves generated letter avatars.
type AvatarHandler struct {
	logger *slog.Logger
}

func NewAvatarHandler(logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{logger: logger}
}

// HandleAvatar renders the letter avatar for a username.
//
// HTTP: GET /avatar/{username}
//
// Output is a pure function of the username's first letter, so clients may
// cache it for a day.
func (h *AvatarHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		http.NotFound(w, r)
		return
	}

	img, err := avatar.ForUsername(username)
	if err != nil {
		h.logger.Error("avatar generation failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(img)
}
