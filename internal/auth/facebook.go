package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/caption-studio/internal/apperror"
)

// FacebookScopes are the permissions requested in the connect dialog:
// posting to and reading the user's Pages, and publishing to the Instagram
// business account linked to a Page.
var FacebookScopes = []string{
	"pages_manage_posts",
	"pages_read_engagement",
	"instagram_basic",
	"instagram_content_publish",
}

// FacebookConfig is the app registration used for the connect dialog.
//
// DialogBaseURL and GraphBaseURL include the API version, e.g.
// "https://www.facebook.com/v18.0" and "https://graph.facebook.com/v18.0".
// Tests point GraphBaseURL at an httptest server.
type FacebookConfig struct {
	AppID         string
	AppSecret     string
	RedirectURI   string
	DialogBaseURL string
	GraphBaseURL  string

	// HTTPClient is used for the code exchange. nil means http.DefaultClient.
	HTTPClient *http.Client

	// Timeout bounds the code exchange. Zero means DefaultExchangeTimeout.
	Timeout time.Duration
}

// DefaultExchangeTimeout matches graph.DefaultTimeout.
const DefaultExchangeTimeout = 15 * time.Second

// FacebookProvider wraps golang.org/x/oauth2 for the Facebook Login
// authorization code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The user is redirected to the dialog with our client id and scopes.
//  2. Facebook redirects back to RedirectURI with a short-lived "code".
//  3. ExchangeCode trades the code for a short-lived user access token
//     (server-to-server, using the app secret).
//
// Upgrading that token to a long-lived one is a Graph call that oauth2 has
// no grant for; see graph.Client.ExchangeLongLived.
type FacebookProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
}

// NewFacebookProvider builds the oauth2 config for cfg.
func NewFacebookProvider(cfg FacebookConfig) *FacebookProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}

	return &FacebookProvider{
		config: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       FacebookScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  strings.TrimRight(cfg.DialogBaseURL, "/") + "/dialog/oauth",
				TokenURL: strings.TrimRight(cfg.GraphBaseURL, "/") + "/oauth/access_token",
				// Graph expects client_id/client_secret as parameters,
				// not HTTP basic auth.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// AuthURL returns the connect dialog URL for state. It cannot fail; a bad
// app configuration only shows up when Facebook calls back.
func (p *FacebookProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a short-lived access token.
//
// The request is bounded by the provider's timeout. Any failure is reported
// as apperror.ErrCredentialExchange. When Facebook
// answered with an error document its raw body is kept in Detail.
func (p *FacebookProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperror.CredentialExchange("missing authorization code")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	// oauth2 reads the HTTP client from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", apperror.CredentialExchange(string(retrieveErr.Body))
		}
		return "", apperror.CredentialExchange(fmt.Sprintf("exchanging code: %v", err))
	}

	return token.AccessToken, nil
}
