// Package handler contains the HTTP handlers: parse the request, call a
// service, render a template or redirect. No business rules live here, and
// this is the single layer that turns domain errors into HTTP responses.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sakif/planttoucher/internal/apperror"
	"github.com/sakif/planttoucher/internal/session"
)

// Renderer parses the templates once at startup and executes them per
// request. Each page template is parsed together with base.html so pages can
// fill the layout's content block — Go's template composition model.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	base := filepath.Join(templateDir, "base.html")
	pages, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("globbing templates: %w", err)
	}

	templates := map[string]*template.Template{}
	for _, page := range pages {
		if filepath.Base(page) == "base.html" {
			continue
		}
		t, err := template.ParseFiles(base, page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Render executes the named page template. The viewer context and the app
// constants are injected into every page; handlers supply only page-specific
// data.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	t, ok := rn.templates[name]
	if !ok {
		rn.logger.Error("unknown template", slog.String("name", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	data["AppName"] = "PlantToucher"
	data["CopyrightYear"] = 2024
	data["PostNeoType"] = "Touch"
	data["Viewer"] = session.ViewerFromContext(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		// Headers are gone by now; all we can do is log.
		rn.logger.Error("template execution failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}

// fail is the error→HTTP boundary for page handlers. Conflict errors never
// reach it — the registration handlers re-render their forms instead.
func (rn *Renderer) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotAuthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, apperror.ErrPendingAuth):
		http.Redirect(w, r, "/error", http.StatusSeeOther)
	case errors.Is(err, apperror.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, apperror.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, apperror.ErrValidation):
		var appErr *apperror.AppError
		msg := "invalid input"
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		http.Error(w, msg, http.StatusBadRequest)
	default:
		// Storage failures and anything unclassified: log the detail, show
		// the client nothing but a generic 500.
		rn.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// writeJSON serves the one JSON endpoint (the like response). Status and
// headers must be set before the first body write.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
