package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/caption-studio/internal/auth"
	"github.com/sakif/caption-studio/internal/engagement"
	"github.com/sakif/caption-studio/internal/generator"
	"github.com/sakif/caption-studio/internal/graph"
	"github.com/sakif/caption-studio/internal/handler"
	"github.com/sakif/caption-studio/internal/media"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
	"github.com/sakif/caption-studio/internal/repository/sqlite"
	"github.com/sakif/caption-studio/internal/service"
)

const publicBaseURL = "http://studio.test"

var defaultPage = repository.ListOptions{}

// stubGenerator returns fixed output, or err for both calls when set.
type stubGenerator struct {
	caption string
	err     error
}

func (g stubGenerator) Caption(ctx context.Context, topic string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.caption, nil
}

func (g stubGenerator) Image(ctx context.Context, prompt string) (*generator.Image, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Image{Data: []byte("\x89PNG fake"), MIMEType: "image/png"}, nil
}

// testEnv is the real service stack over an in-memory database, with the
// Graph API replaced by an httptest server whose routes each test fills in.
type testEnv struct {
	db       *sqlite.DB
	tokens   *auth.TokenService
	graph    *http.ServeMux
	mediaDir string
	logger   *slog.Logger

	auth     *service.AuthService
	social   *service.SocialService
	content  *service.ContentService
	profiles *service.ProfileService
}

func newTestEnv(t *testing.T, gen generator.Generator) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider := auth.NewFacebookProvider(auth.FacebookConfig{
		AppID:         "app-1",
		AppSecret:     "secret-1",
		RedirectURI:   publicBaseURL + "/social/facebook/callback",
		DialogBaseURL: "https://www.facebook.com/v18.0",
		GraphBaseURL:  srv.URL,
		HTTPClient:    srv.Client(),
	})
	graphClient := graph.New(graph.Config{
		BaseURL:    srv.URL,
		AppID:      "app-1",
		AppSecret:  "secret-1",
		Policy:     graph.DefaultPolicy(),
		HTTPClient: srv.Client(),
	}, logger)

	mediaDir := t.TempDir()
	store, err := media.NewStore(mediaDir, publicBaseURL)
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		tokens:   tokens,
		graph:    mux,
		mediaDir: mediaDir,
		logger:   logger,
		auth:     service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), logger),
		social:   service.NewSocialService(provider, graphClient, db, nil, logger),
		content:  service.NewContentService(gen, store, db, engagement.New(), logger),
		profiles: service.NewProfileService(db, logger),
	}
}

// signUp creates a user and returns its id.
func (e *testEnv) signUp(t *testing.T, username string) string {
	t.Helper()
	res, err := e.auth.SignUp(context.Background(), username, username+"@example.com", "password123")
	require.NoError(t, err)
	return res.User.ID
}

// connect stores a Facebook grant for userID that expires in d.
func (e *testEnv) connect(t *testing.T, userID string, d time.Duration) {
	t.Helper()
	exp := time.Now().Add(d).UTC()
	require.NoError(t, e.db.UpsertCredential(context.Background(), &model.SocialCredential{
		UserID:      userID,
		Platform:    model.PlatformFacebook,
		AccessToken: "long-token",
		ExpiresAt:   &exp,
	}))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// as attaches userID the way auth.RequireAuth would.
func as(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var errGeneratorDown = errors.New("generator unavailable")
