package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/service"
)

// stateCookie carries the OAuth state between login and callback.
const stateCookie = "fb_oauth_state"

// SocialHandler connects Facebook and publishes content.
//
// HANDLER RESPONSIBILITIES:
//   - HandleFacebookLogin    → redirect to the Facebook Login dialog
//   - HandleFacebookCallback → store the long-lived grant, back to the dashboard
//   - HandleStatus           → connection state as JSON
//   - HandlePublish          → post to the Page or to Instagram
type SocialHandler struct {
	social *service.SocialService
	logger *slog.Logger
}

// NewSocialHandler creates a SocialHandler.
func NewSocialHandler(social *service.SocialService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{social: social, logger: logger}
}

// HandleFacebookLogin redirects the browser to the Facebook Login dialog.
//
// HTTP: GET /social/facebook/login
// Auth: Required
//
// A random state goes into a short-lived cookie and into the dialog URL;
// the callback refuses to run unless the two match.
func (h *SocialHandler) HandleFacebookLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/social/facebook",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.social.AuthorizationURL(state), http.StatusTemporaryRedirect)
}

// HandleFacebookCallback completes the connect flow.
//
// HTTP: GET /social/facebook/callback?code=xxx&state=yyy
// Auth: Required
//
// FLOW:
//  1. Validate the state parameter against the cookie
//  2. Bail out if the user denied the dialog
//  3. Exchange the code and store the long-lived token
//  4. Redirect to /dashboard?social=connected, or ?social=error&message=...
func (h *SocialHandler) HandleFacebookCallback(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	// --- Step 1: CSRF state ---
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("facebook callback: state mismatch", slog.String("userID", userID))
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/social/facebook",
		MaxAge: -1,
	})

	// --- Step 2: user declined ---
	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("facebook callback: authorization denied",
			slog.String("userID", userID),
			slog.String("error", errParam),
		)
		redirectSocialError(w, r, "Facebook authorization was denied")
		return
	}

	// --- Step 3: exchange and store ---
	if _, err := h.social.HandleCallback(r.Context(), userID, q.Get("code")); err != nil {
		msg := "could not connect Facebook"
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			// Error() carries Facebook's raw reply after the message.
			msg = appErr.Error()
		}
		redirectSocialError(w, r, msg)
		return
	}

	// --- Step 4: back to the app ---
	http.Redirect(w, r, "/dashboard?social=connected", http.StatusSeeOther)
}

func redirectSocialError(w http.ResponseWriter, r *http.Request, message string) {
	v := url.Values{"social": {"error"}, "message": {message}}
	http.Redirect(w, r, "/dashboard?"+v.Encode(), http.StatusSeeOther)
}

// HandleStatus reports whether the user has connected Facebook.
//
// HTTP: GET /api/social/status
// Auth: Required
func (h *SocialHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.social.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandlePublish posts content to the user's Page or Instagram account.
//
// HTTP: POST /api/social/publish {platform, content, imageUrl}
// Auth: Required
//
// Upstream rejections come back as 502 publish_failed with Facebook's raw
// response in "detail".
func (h *SocialHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req service.PublishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.social.Publish(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
