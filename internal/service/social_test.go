package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/auth"
	"github.com/sakif/caption-studio/internal/graph"
	"github.com/sakif/caption-studio/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type graphCall struct {
	Method string
	Path   string
	Params url.Values
}

// graphStub is a fake Graph API. Routes are keyed "METHOD /path"; anything
// unrouted answers 404 so an unexpected call fails the test visibly.
type graphStub struct {
	srv    *httptest.Server
	mu     sync.Mutex
	calls  []graphCall
	routes map[string]http.HandlerFunc
}

func newGraphStub(t *testing.T) *graphStub {
	t.Helper()
	gs := &graphStub{routes: make(map[string]http.HandlerFunc)}
	gs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gs.mu.Lock()
		gs.calls = append(gs.calls, graphCall{Method: r.Method, Path: r.URL.Path, Params: r.Form})
		h, ok := gs.routes[r.Method+" "+r.URL.Path]
		gs.mu.Unlock()
		if !ok {
			jsonReply(http.StatusNotFound, `{"error":{"message":"unexpected call"}}`)(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(gs.srv.Close)
	return gs
}

func (gs *graphStub) on(method, path string, h http.HandlerFunc) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.routes[method+" "+path] = h
}

func (gs *graphStub) callsTo(method, path string) []graphCall {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	var out []graphCall
	for _, c := range gs.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (gs *graphStub) callCount() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.calls)
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// onTokenExchange wires both token calls: the code exchange (POST, made by
// x/oauth2) returns "short-<code>", the long-lived exchange (GET) returns
// "long-<short token>" with the given expires_in fragment.
func (gs *graphStub) onTokenExchange(expiresIn string) {
	gs.on(http.MethodPost, "/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		jsonReply(http.StatusOK, `{"access_token":"short-`+r.Form.Get("code")+`","token_type":"bearer"}`)(w, r)
	})
	gs.on(http.MethodGet, "/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		body := `{"access_token":"long-` + r.Form.Get("fb_exchange_token") + `","token_type":"bearer"` + expiresIn + `}`
		jsonReply(http.StatusOK, body)(w, r)
	})
}

func newTestSocialService(t *testing.T, gs *graphStub, creds *fakeCredentialRepo) *SocialService {
	t.Helper()

	provider := auth.NewFacebookProvider(auth.FacebookConfig{
		AppID:         "app-1",
		AppSecret:     "secret-1",
		RedirectURI:   "http://localhost:8080/social/facebook/callback",
		DialogBaseURL: "https://www.facebook.com/v18.0",
		GraphBaseURL:  gs.srv.URL,
		HTTPClient:    gs.srv.Client(),
	})
	client := graph.New(graph.Config{
		BaseURL:    gs.srv.URL,
		AppID:      "app-1",
		AppSecret:  "secret-1",
		Policy:     graph.DefaultPolicy(),
		HTTPClient: gs.srv.Client(),
	}, discardLogger())

	return NewSocialService(provider, client, creds, func() time.Time { return testNow }, discardLogger())
}

func connectedCreds(userID string, expiresAt *time.Time) *fakeCredentialRepo {
	creds := newFakeCredentialRepo()
	creds.put(model.SocialCredential{
		ID:          "cred-1",
		UserID:      userID,
		Platform:    model.PlatformFacebook,
		AccessToken: "page-token",
		ExpiresAt:   expiresAt,
	})
	return creds
}

func timePtr(t time.Time) *time.Time { return &t }

func assertAppError(t *testing.T, err, sentinel error) *apperror.AppError {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want %v", err, sentinel)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an *apperror.AppError", err)
	}
	return appErr
}

// =========================================================================
// AuthorizationURL
// =========================================================================

func TestAuthorizationURL(t *testing.T) {
	gs := newGraphStub(t)
	svc := newTestSocialService(t, gs, newFakeCredentialRepo())

	u, err := url.Parse(svc.AuthorizationURL("st-1"))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("client_id") != "app-1" || q.Get("state") != "st-1" {
		t.Errorf("query = %v", q)
	}
	for _, scope := range []string{"pages_manage_posts", "pages_read_engagement", "instagram_basic", "instagram_content_publish"} {
		if !strings.Contains(q.Get("scope"), scope) {
			t.Errorf("scope %q missing from %q", scope, q.Get("scope"))
		}
	}
	if gs.callCount() != 0 {
		t.Errorf("AuthorizationURL made %d upstream calls, want 0", gs.callCount())
	}
}

// =========================================================================
// HandleCallback
// =========================================================================

func TestHandleCallback_StoresLongLivedToken(t *testing.T) {
	gs := newGraphStub(t)
	gs.onTokenExchange(`,"expires_in":3600`)
	creds := newFakeCredentialRepo()
	svc := newTestSocialService(t, gs, creds)

	cred, err := svc.HandleCallback(context.Background(), "user-1", "abc")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if cred.AccessToken != "long-short-abc" {
		t.Errorf("AccessToken = %q, want long-short-abc", cred.AccessToken)
	}
	if want := testNow.Add(time.Hour); cred.ExpiresAt == nil || !cred.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", cred.ExpiresAt, want)
	}

	long := gs.callsTo(http.MethodGet, "/oauth/access_token")
	if len(long) != 1 {
		t.Fatalf("long-lived exchange calls = %d, want 1", len(long))
	}
	p := long[0].Params
	if p.Get("grant_type") != "fb_exchange_token" || p.Get("fb_exchange_token") != "short-abc" ||
		p.Get("client_id") != "app-1" || p.Get("client_secret") != "secret-1" {
		t.Errorf("long-lived exchange params = %v", p)
	}
}

func TestHandleCallback_TwiceKeepsOneCredentialWithLatestValues(t *testing.T) {
	gs := newGraphStub(t)
	gs.onTokenExchange(`,"expires_in":7200`)
	creds := newFakeCredentialRepo()
	svc := newTestSocialService(t, gs, creds)
	ctx := context.Background()

	first, err := svc.HandleCallback(ctx, "user-1", "code-one")
	if err != nil {
		t.Fatalf("first HandleCallback() error = %v", err)
	}
	if _, err := svc.HandleCallback(ctx, "user-1", "code-two"); err != nil {
		t.Fatalf("second HandleCallback() error = %v", err)
	}

	if creds.count() != 1 {
		t.Fatalf("credential rows = %d, want 1", creds.count())
	}
	stored, _ := creds.GetCredential(ctx, "user-1", model.PlatformFacebook)
	if stored.AccessToken != "long-short-code-two" {
		t.Errorf("AccessToken = %q, want the second grant", stored.AccessToken)
	}
	if stored.ID != first.ID {
		t.Errorf("credential id changed from %q to %q", first.ID, stored.ID)
	}
}

func TestHandleCallback_MissingExpiryDefaultsToSixtyDays(t *testing.T) {
	gs := newGraphStub(t)
	gs.onTokenExchange("")
	svc := newTestSocialService(t, gs, newFakeCredentialRepo())

	cred, err := svc.HandleCallback(context.Background(), "user-1", "abc")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	want := testNow.Add(60 * 24 * time.Hour)
	if cred.ExpiresAt == nil {
		t.Fatal("ExpiresAt is nil")
	}
	if diff := cred.ExpiresAt.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("ExpiresAt = %v, want %v (±1s)", cred.ExpiresAt, want)
	}
}

func TestHandleCallback_LongLivedExchangeWithoutTokenPersistsNothing(t *testing.T) {
	const body = `{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`

	gs := newGraphStub(t)
	gs.onTokenExchange("")
	gs.on(http.MethodGet, "/oauth/access_token", jsonReply(http.StatusBadRequest, body))

	previous := testNow.Add(time.Hour)
	creds := connectedCreds("user-1", &previous)
	svc := newTestSocialService(t, gs, creds)

	_, err := svc.HandleCallback(context.Background(), "user-1", "abc")

	appErr := assertAppError(t, err, apperror.ErrCredentialExchange)
	if appErr.Detail != body {
		t.Errorf("Detail = %q, want raw upstream body", appErr.Detail)
	}
	if creds.upserts != 0 {
		t.Errorf("UpsertCredential called %d times, want 0", creds.upserts)
	}
	stored, _ := creds.GetCredential(context.Background(), "user-1", model.PlatformFacebook)
	if stored.AccessToken != "page-token" || !stored.ExpiresAt.Equal(previous) {
		t.Errorf("existing credential was modified: %+v", stored)
	}
}

func TestHandleCallback_SuccessStatusWithoutToken(t *testing.T) {
	gs := newGraphStub(t)
	gs.onTokenExchange("")
	gs.on(http.MethodGet, "/oauth/access_token", jsonReply(http.StatusOK, `{"token_type":"bearer"}`))
	creds := newFakeCredentialRepo()
	svc := newTestSocialService(t, gs, creds)

	_, err := svc.HandleCallback(context.Background(), "user-1", "abc")

	assertAppError(t, err, apperror.ErrCredentialExchange)
	if creds.count() != 0 {
		t.Errorf("credential rows = %d, want 0", creds.count())
	}
}

func TestHandleCallback_CodeExchangeFails(t *testing.T) {
	gs := newGraphStub(t)
	gs.on(http.MethodPost, "/oauth/access_token",
		jsonReply(http.StatusBadRequest, `{"error":{"message":"This authorization code has been used."}}`))
	creds := newFakeCredentialRepo()
	svc := newTestSocialService(t, gs, creds)

	_, err := svc.HandleCallback(context.Background(), "user-1", "used-code")

	appErr := assertAppError(t, err, apperror.ErrCredentialExchange)
	if !strings.Contains(appErr.Detail, "has been used") {
		t.Errorf("Detail = %q, want upstream message", appErr.Detail)
	}
	if len(gs.callsTo(http.MethodGet, "/oauth/access_token")) != 0 {
		t.Error("long-lived exchange must not run after the code exchange failed")
	}
	if creds.count() != 0 {
		t.Errorf("credential rows = %d, want 0", creds.count())
	}
}

// =========================================================================
// Publish: credential gates
// =========================================================================

func TestPublish_NotConnected(t *testing.T) {
	gs := newGraphStub(t)
	svc := newTestSocialService(t, gs, newFakeCredentialRepo())

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{Platform: "facebook", Content: "hello"})

	assertAppError(t, err, apperror.ErrNotConnected)
	if gs.callCount() != 0 {
		t.Errorf("upstream calls = %d, want 0", gs.callCount())
	}
}

func TestPublish_ExpiredCredentialMakesNoUpstreamCall(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
	}{
		{"expired an hour ago", testNow.Add(-time.Hour)},
		{"expires exactly now", testNow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, platform := range []string{"facebook", "instagram"} {
				gs := newGraphStub(t)
				svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(tc.expiresAt)))

				_, err := svc.Publish(context.Background(), "user-1", PublishRequest{
					Platform: platform,
					Content:  "hello",
					ImageURL: "http://x/img.png",
				})

				assertAppError(t, err, apperror.ErrCredentialExpired)
				if gs.callCount() != 0 {
					t.Errorf("%s: upstream calls = %d, want 0", platform, gs.callCount())
				}
			}
		})
	}
}

func TestPublish_NoExpiryNeverExpires(t *testing.T) {
	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[{"id":"p1"}]}`))
	gs.on(http.MethodPost, "/p1/feed", jsonReply(http.StatusOK, `{"id":"p1_1"}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", nil))

	if _, err := svc.Publish(context.Background(), "user-1", PublishRequest{Platform: "facebook", Content: "hi"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   PublishRequest
		field string
	}{
		{"unknown platform", PublishRequest{Platform: "myspace", Content: "hi"}, "platform"},
		{"empty facebook content", PublishRequest{Platform: "facebook", Content: "  "}, "content"},
		{"instagram without image", PublishRequest{Platform: "instagram", Content: "hi"}, "imageUrl"},
		{"instagram with relative image", PublishRequest{Platform: "instagram", Content: "hi", ImageURL: "/media/a.png"}, "imageUrl"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := newGraphStub(t)
			svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

			_, err := svc.Publish(context.Background(), "user-1", tc.req)

			appErr := assertAppError(t, err, apperror.ErrValidation)
			if appErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tc.field)
			}
			if gs.callCount() != 0 {
				t.Errorf("upstream calls = %d, want 0", gs.callCount())
			}
		})
	}
}

func TestPublish_NoPageIsPlatformNotLinked(t *testing.T) {
	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[]}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{Platform: "facebook", Content: "hello"})

	assertAppError(t, err, apperror.ErrPlatformNotLinked)
	if gs.callCount() != 1 {
		t.Errorf("upstream calls = %d, want only the page lookup", gs.callCount())
	}
}

// =========================================================================
// Publish: Facebook
// =========================================================================

func TestPublish_FacebookPostsOnceToFirstPage(t *testing.T) {
	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[{"id":"p1"},{"id":"p2"}]}`))
	gs.on(http.MethodPost, "/p1/feed", jsonReply(http.StatusOK, `{"id":"p1_99"}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	res, err := svc.Publish(context.Background(), "user-1", PublishRequest{Platform: "facebook", Content: "hello"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.PageID != "p1" || res.Platform != "facebook" {
		t.Errorf("result = %+v", res)
	}

	feed := gs.callsTo(http.MethodPost, "/p1/feed")
	if len(feed) != 1 {
		t.Fatalf("feed calls = %d, want exactly 1", len(feed))
	}
	if feed[0].Params.Get("message") != "hello" {
		t.Errorf("message = %q, want hello", feed[0].Params.Get("message"))
	}
	if feed[0].Params.Get("access_token") != "page-token" {
		t.Errorf("access_token = %q, want the stored token", feed[0].Params.Get("access_token"))
	}
	if len(gs.callsTo(http.MethodPost, "/p2/feed")) != 0 {
		t.Error("second page must not be posted to")
	}
}

func TestPublish_FacebookRejectedKeepsBody(t *testing.T) {
	const body = `{"error":{"message":"(#200) The user hasn't authorized the application to perform this action"}}`

	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[{"id":"p1"}]}`))
	gs.on(http.MethodPost, "/p1/feed", jsonReply(http.StatusBadRequest, body))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{Platform: "facebook", Content: "hello"})

	appErr := assertAppError(t, err, apperror.ErrPublishFailed)
	if appErr.Detail != body {
		t.Errorf("Detail = %q, want %q", appErr.Detail, body)
	}
	if len(gs.callsTo(http.MethodPost, "/p1/feed")) != 1 {
		t.Error("a rejected post must not be retried by default")
	}
}

func TestPublish_PlatformIsCaseInsensitive(t *testing.T) {
	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[{"id":"p1"}]}`))
	gs.on(http.MethodPost, "/p1/feed", jsonReply(http.StatusCreated, `{"id":"p1_1"}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	if _, err := svc.Publish(context.Background(), "user-1", PublishRequest{Platform: " Facebook ", Content: "hi"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

// =========================================================================
// Publish: Instagram
// =========================================================================

func TestPublish_InstagramWithoutLinkedAccount(t *testing.T) {
	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[{"id":"p1"}]}`))
	gs.on(http.MethodGet, "/p1", jsonReply(http.StatusOK, `{"id":"p1"}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{
		Platform: "instagram",
		Content:  "caption text",
		ImageURL: "http://x/img.png",
	})

	assertAppError(t, err, apperror.ErrPlatformNotLinked)

	pageLookup := gs.callsTo(http.MethodGet, "/p1")
	if len(pageLookup) != 1 || pageLookup[0].Params.Get("fields") != "instagram_business_account" {
		t.Errorf("page lookup calls = %+v", pageLookup)
	}
	if gs.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 (accounts and page lookup, no media calls)", gs.callCount())
	}
}

func instagramStub(t *testing.T) *graphStub {
	gs := newGraphStub(t)
	gs.on(http.MethodGet, "/me/accounts", jsonReply(http.StatusOK, `{"data":[{"id":"p1"}]}`))
	gs.on(http.MethodGet, "/p1", jsonReply(http.StatusOK, `{"instagram_business_account":{"id":"ig-7"},"id":"p1"}`))
	return gs
}

func TestPublish_InstagramTwoStep(t *testing.T) {
	gs := instagramStub(t)
	gs.on(http.MethodPost, "/ig-7/media", jsonReply(http.StatusOK, `{"id":"container-42"}`))
	gs.on(http.MethodPost, "/ig-7/media_publish", jsonReply(http.StatusOK, `{"id":"media-1"}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	res, err := svc.Publish(context.Background(), "user-1", PublishRequest{
		Platform: "instagram",
		Content:  "caption text",
		ImageURL: "http://x/img.png",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.InstagramAccountID != "ig-7" {
		t.Errorf("InstagramAccountID = %q, want ig-7", res.InstagramAccountID)
	}

	media := gs.callsTo(http.MethodPost, "/ig-7/media")
	if len(media) != 1 {
		t.Fatalf("media calls = %d, want 1", len(media))
	}
	if media[0].Params.Get("image_url") != "http://x/img.png" || media[0].Params.Get("caption") != "caption text" {
		t.Errorf("media params = %v", media[0].Params)
	}

	publish := gs.callsTo(http.MethodPost, "/ig-7/media_publish")
	if len(publish) != 1 {
		t.Fatalf("media_publish calls = %d, want 1", len(publish))
	}
	if publish[0].Params.Get("creation_id") != "container-42" {
		t.Errorf("creation_id = %q, want container-42", publish[0].Params.Get("creation_id"))
	}
}

func TestPublish_InstagramMediaFailureSkipsPublish(t *testing.T) {
	const body = `{"error":{"message":"Only photo or video can be accepted as media type."}}`

	gs := instagramStub(t)
	gs.on(http.MethodPost, "/ig-7/media", jsonReply(http.StatusBadRequest, body))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{
		Platform: "instagram",
		Content:  "caption text",
		ImageURL: "http://x/img.png",
	})

	appErr := assertAppError(t, err, apperror.ErrPublishFailed)
	if appErr.Detail != body {
		t.Errorf("Detail = %q", appErr.Detail)
	}
	if n := len(gs.callsTo(http.MethodPost, "/ig-7/media_publish")); n != 0 {
		t.Errorf("media_publish calls = %d, want 0", n)
	}
}

func TestPublish_InstagramContainerWithoutID(t *testing.T) {
	gs := instagramStub(t)
	gs.on(http.MethodPost, "/ig-7/media", jsonReply(http.StatusOK, `{}`))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{
		Platform: "instagram",
		Content:  "caption text",
		ImageURL: "http://x/img.png",
	})

	assertAppError(t, err, apperror.ErrPublishFailed)
	if n := len(gs.callsTo(http.MethodPost, "/ig-7/media_publish")); n != 0 {
		t.Errorf("media_publish calls = %d, want 0", n)
	}
}

func TestPublish_InstagramPublishFailure(t *testing.T) {
	const body = `{"error":{"message":"Media ID is not available"}}`

	gs := instagramStub(t)
	gs.on(http.MethodPost, "/ig-7/media", jsonReply(http.StatusOK, `{"id":"container-42"}`))
	gs.on(http.MethodPost, "/ig-7/media_publish", jsonReply(http.StatusBadRequest, body))
	svc := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour))))

	_, err := svc.Publish(context.Background(), "user-1", PublishRequest{
		Platform: "instagram",
		Content:  "caption text",
		ImageURL: "http://x/img.png",
	})

	appErr := assertAppError(t, err, apperror.ErrPublishFailed)
	if appErr.Detail != body {
		t.Errorf("Detail = %q", appErr.Detail)
	}
}

// =========================================================================
// Status
// =========================================================================

func TestStatus(t *testing.T) {
	gs := newGraphStub(t)
	ctx := context.Background()

	none, err := newTestSocialService(t, gs, newFakeCredentialRepo()).Status(ctx, "user-1")
	if err != nil || none.Connected {
		t.Errorf("Status() without credential = %+v, %v", none, err)
	}

	expired, _ := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(-time.Minute)))).Status(ctx, "user-1")
	if !expired.Connected || !expired.Expired {
		t.Errorf("Status() with expired credential = %+v", expired)
	}

	valid, _ := newTestSocialService(t, gs, connectedCreds("user-1", timePtr(testNow.Add(time.Hour)))).Status(ctx, "user-1")
	if !valid.Connected || valid.Expired || valid.ExpiresAt == nil {
		t.Errorf("Status() with valid credential = %+v", valid)
	}
}
