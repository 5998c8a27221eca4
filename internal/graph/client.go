// Package graph is a small client for the Facebook Graph API endpoints used
// to publish to a Page feed or an Instagram business account.
//
// Every method performs fresh requests; nothing is cached between calls.
// Non-success responses come back as *StatusError with the raw body so
// callers can show the provider's message verbatim.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a Graph response is read.
const maxBodyBytes = 1 << 20

// Config holds the settings for a Client.
type Config struct {
	// BaseURL includes the API version, e.g. "https://graph.facebook.com/v18.0".
	BaseURL   string
	AppID     string
	AppSecret string
	Policy    Policy

	// HTTPClient nil means a client without its own timeout; Policy.Timeout
	// bounds each attempt instead.
	HTTPClient *http.Client
}

// Client calls the Graph API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	appID     string
	appSecret string
	policy    Policy
	http      *http.Client
	logger    *slog.Logger

	// sleep is swapped in tests so retries don't wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		policy:    cfg.Policy.withDefaults(),
		http:      httpClient,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// StatusError is a Graph response that did not carry what the caller
// needed: a non-success status, or a success without the expected field.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph: status %d: %s", e.Status, e.Body)
}

// LongLivedToken is the response of the fb_exchange_token grant.
// ExpiresIn is zero when Facebook omitted it.
type LongLivedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeLongLived upgrades a short-lived user token to a long-lived one.
// A response without an access_token is a *StatusError.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (*LongLivedToken, error) {
	params := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {c.appID},
		"client_secret":     {c.appSecret},
		"fb_exchange_token": {shortToken},
	}

	status, body, err := c.do(ctx, http.MethodGet, "/oauth/access_token", params)
	if err != nil {
		return nil, err
	}
	if !succeeded(status) {
		return nil, &StatusError{Status: status, Body: body}
	}

	var tok LongLivedToken
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return nil, &StatusError{Status: status, Body: body}
	}
	return &tok, nil
}

// PageID returns the id of the first Page in /me/accounts, in the order
// Facebook lists them. It returns "" when the user manages no Page.
func (c *Client) PageID(ctx context.Context, accessToken string) (string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/me/accounts", url.Values{
		"access_token": {accessToken},
	})
	if err != nil {
		return "", err
	}
	if !succeeded(status) {
		return "", &StatusError{Status: status, Body: body}
	}

	var accounts struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &accounts); err != nil {
		return "", &StatusError{Status: status, Body: body}
	}
	if len(accounts.Data) == 0 {
		return "", nil
	}
	return accounts.Data[0].ID, nil
}

// InstagramAccountID returns the Instagram business account linked to
// pageID, or "" when there is none.
func (c *Client) InstagramAccountID(ctx context.Context, pageID, accessToken string) (string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(pageID), url.Values{
		"fields":       {"instagram_business_account"},
		"access_token": {accessToken},
	})
	if err != nil {
		return "", err
	}
	if !succeeded(status) {
		return "", &StatusError{Status: status, Body: body}
	}

	var page struct {
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return "", &StatusError{Status: status, Body: body}
	}
	if page.InstagramBusinessAccount == nil {
		return "", nil
	}
	return page.InstagramBusinessAccount.ID, nil
}

// PostFeed posts message to the Page's feed.
func (c *Client) PostFeed(ctx context.Context, pageID, accessToken, message string) error {
	status, body, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(pageID)+"/feed", url.Values{
		"message":      {message},
		"access_token": {accessToken},
	})
	if err != nil {
		return err
	}
	if !succeeded(status) {
		return &StatusError{Status: status, Body: body}
	}
	return nil
}

// CreateMedia creates an Instagram media container and returns its id.
func (c *Client) CreateMedia(ctx context.Context, igID, accessToken, imageURL, caption string) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(igID)+"/media", url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {accessToken},
	})
	if err != nil {
		return "", err
	}

	var container struct {
		ID string `json:"id"`
	}
	if !succeeded(status) || json.Unmarshal(body, &container) != nil || container.ID == "" {
		return "", &StatusError{Status: status, Body: body}
	}
	return container.ID, nil
}

// PublishMedia publishes a container created by CreateMedia.
func (c *Client) PublishMedia(ctx context.Context, igID, accessToken, creationID string) error {
	status, body, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(igID)+"/media_publish", url.Values{
		"creation_id":  {creationID},
		"access_token": {accessToken},
	})
	if err != nil {
		return err
	}
	if !succeeded(status) {
		return &StatusError{Status: status, Body: body}
	}
	return nil
}

// do sends one logical call, retrying as the Policy allows. GET params go
// in the query string, POST params in a form-encoded body. A transport
// error is returned only when no attempt produced a response.
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (int, []byte, error) {
	for attempt := 1; ; attempt++ {
		status, body, err := c.attempt(ctx, method, path, params)

		c.logger.Debug("graph call",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Int("status", status),
		)

		if err == nil && succeeded(status) {
			return status, body, nil
		}

		wait, retry := c.policy.Backoff(attempt, status, err)
		if !retry || ctx.Err() != nil {
			if err != nil {
				return 0, nil, fmt.Errorf("graph: %s %s: %w", method, path, err)
			}
			return status, body, nil
		}

		c.logger.Warn("retrying graph call",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return 0, nil, fmt.Errorf("graph: %s %s: %w", method, path, err)
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, path string, params url.Values) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	endpoint := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		endpoint += "?" + params.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// succeeded matches the statuses Graph uses for a completed call.
func succeeded(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsStatusError reports whether err carries a Graph response and returns it.
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
