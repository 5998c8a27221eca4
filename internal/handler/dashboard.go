// Package handler contains the HTTP handlers.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, cookies)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules; they translate between HTTP and the
// services, and response.go maps service errors to status codes.
package handler

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/auth"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
	"github.com/sakif/caption-studio/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardHandler renders the HTML dashboard. Templates are parsed once
// at construction and reused for every request.
type DashboardHandler struct {
	templates *template.Template
	users     *service.AuthService
	content   *service.ContentService
	social    *service.SocialService
	logger    *slog.Logger
}

// NewDashboardHandler parses the embedded templates. base.html defines the
// page shell with a {{template "content"}} slot that dashboard.html fills.
func NewDashboardHandler(
	users *service.AuthService,
	content *service.ContentService,
	social *service.SocialService,
	logger *slog.Logger,
) (*DashboardHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	return &DashboardHandler{
		templates: tmpl,
		users:     users,
		content:   content,
		social:    social,
		logger:    logger,
	}, nil
}

type dashboardData struct {
	Title   string
	User    *model.User
	Status  *service.SocialStatus
	History *service.History
	Social  string // "connected" or "error" after the Facebook callback
	Message string
}

// HandleDashboard renders the user's captions, images, and Facebook state.
//
// HTTP: GET /dashboard
// Auth: Optional; anonymous visitors get the signed-out page.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		Title:   "Caption Studio",
		Social:  r.URL.Query().Get("social"),
		Message: r.URL.Query().Get("message"),
	}

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		if err := h.load(r, userID, &data); err != nil {
			h.logger.Error("dashboard: loading data failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *DashboardHandler) load(r *http.Request, userID string, data *dashboardData) error {
	ctx := r.Context()

	user, err := h.users.GetUserByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		// Stale cookie for a deleted account: render signed out.
		return nil
	}
	if err != nil {
		return err
	}
	status, err := h.social.Status(ctx, userID)
	if err != nil {
		return err
	}
	hist, err := h.content.History(ctx, userID, repository.ListOptions{})
	if err != nil {
		return err
	}

	data.User = user
	data.Status = status
	data.History = hist
	return nil
}
