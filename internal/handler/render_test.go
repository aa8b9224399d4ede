package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sakif/planttoucher/internal/apperror"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rn, err := NewRenderer("../../web/templates", logger)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return rn
}

func TestNewRenderer_ParsesAllPages(t *testing.T) {
	rn := testRenderer(t)

	for _, name := range []string{
		"home", "post", "profile", "loginRegister",
		"registerUsername", "googleLogout", "error",
	} {
		if _, ok := rn.templates[name]; !ok {
			t.Errorf("template %q was not parsed", name)
		}
	}
	if _, ok := rn.templates["base"]; ok {
		t.Error("base.html must not be registered as a page of its own")
	}
}

func TestRender_InjectsAppData(t *testing.T) {
	rn := testRenderer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rn.Render(rr, req, "error", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	page := rr.Body.String()
	// The layout constants come from the renderer, not from handler data.
	if !strings.Contains(page, "PlantToucher") {
		t.Error("rendered page missing the app name")
	}
	if !strings.Contains(page, "2024") {
		t.Error("rendered page missing the copyright year")
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	rn := testRenderer(t)

	rr := httptest.NewRecorder()
	rn.Render(rr, httptest.NewRequest(http.MethodGet, "/", nil), "no-such-page", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for an unknown template", rr.Code)
	}
}

// fail is the single place domain errors become HTTP responses; the mapping
// is the contract the handlers rely on.
func TestFail_ErrorMapping(t *testing.T) {
	rn := testRenderer(t)

	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantLocation string
	}{
		{"not authenticated redirects to login", apperror.NotAuthenticated("posting"), http.StatusSeeOther, "/login"},
		{"missing pending auth redirects to error", apperror.MissingPendingAuth(), http.StatusSeeOther, "/error"},
		{"not found", apperror.NotFound("post", 9), http.StatusNotFound, ""},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, ""},
		{"validation", apperror.ValidationFailed("title", "title is required"), http.StatusBadRequest, ""},
		{"storage is a generic 500", apperror.Storage("op", errors.New("boom")), http.StatusInternalServerError, ""},
		{"unclassified is a generic 500", errors.New("surprise"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			rn.fail(rr, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" {
				if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
					t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
				}
			}
		})
	}
}

// Driver details must never reach the client on storage failures.
func TestFail_HidesStorageDetail(t *testing.T) {
	rn := testRenderer(t)

	rr := httptest.NewRecorder()
	rn.fail(rr, httptest.NewRequest(http.MethodGet, "/x", nil),
		apperror.Storage("querying post", errors.New("table posts has no column named likes")))

	if strings.Contains(rr.Body.String(), "column") {
		t.Errorf("storage detail leaked to the client: %q", rr.Body.String())
	}
}
