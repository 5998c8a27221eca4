package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/graph"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

// DefaultTokenLifetime is used when the long-lived exchange omits expires_in.
const DefaultTokenLifetime = 60 * 24 * time.Hour

// OAuthProvider is the Facebook Login dialog and code exchange
// (implemented by auth.FacebookProvider).
type OAuthProvider interface {
	AuthURL(state string) string
	// ExchangeCode returns the short-lived user token. Failures are
	// apperror.ErrCredentialExchange.
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// GraphAPI is the subset of the Graph API used for publishing
// (implemented by graph.Client).
type GraphAPI interface {
	ExchangeLongLived(ctx context.Context, shortToken string) (*graph.LongLivedToken, error)
	PageID(ctx context.Context, accessToken string) (string, error)
	InstagramAccountID(ctx context.Context, pageID, accessToken string) (string, error)
	PostFeed(ctx context.Context, pageID, accessToken, message string) error
	CreateMedia(ctx context.Context, igID, accessToken, imageURL, caption string) (string, error)
	PublishMedia(ctx context.Context, igID, accessToken, creationID string) error
}

// PublishRequest is one piece of content to post.
type PublishRequest struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// PublishResult describes where the content went.
type PublishResult struct {
	Platform           string `json:"platform"`
	PageID             string `json:"pageId"`
	InstagramAccountID string `json:"instagramAccountId,omitempty"`
	Message            string `json:"message"`
}

// SocialStatus is the user's connection state for the dashboard.
type SocialStatus struct {
	Platform  string     `json:"platform"`
	Connected bool       `json:"connected"`
	Expired   bool       `json:"expired"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SocialService connects a user's Facebook account and publishes to the
// first Page they manage or to the Instagram business account linked to it.
//
// Every call runs synchronously in the caller's request. Page and Instagram
// ids are resolved fresh on every publish. Two concurrent publishes for the
// same user are not serialised; each simply posts.
type SocialService struct {
	provider OAuthProvider
	graph    GraphAPI
	creds    repository.CredentialRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewSocialService creates a SocialService. now is the clock used for
// expiry decisions; pass time.Now outside tests.
func NewSocialService(
	provider OAuthProvider,
	graphAPI GraphAPI,
	creds repository.CredentialRepository,
	now func() time.Time,
	logger *slog.Logger,
) *SocialService {
	if now == nil {
		now = time.Now
	}
	return &SocialService{
		provider: provider,
		graph:    graphAPI,
		creds:    creds,
		now:      now,
		logger:   logger,
	}
}

// AuthorizationURL is where the browser is sent to grant the publishing
// scopes. state is echoed back on the callback.
func (s *SocialService) AuthorizationURL(state string) string {
	return s.provider.AuthURL(state)
}

// HandleCallback finishes the connect flow for userID: it exchanges code
// for a short-lived token, upgrades that to a long-lived token and stores
// it with its absolute expiry.
//
// If either exchange yields no token the result is
// apperror.ErrCredentialExchange carrying the provider's raw response, and
// nothing is written.
func (s *SocialService) HandleCallback(ctx context.Context, userID, code string) (*model.SocialCredential, error) {
	shortToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Warn("facebook code exchange failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	long, err := s.graph.ExchangeLongLived(ctx, shortToken)
	if err != nil {
		s.logger.Warn("facebook long-lived exchange failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		if se, ok := graph.IsStatusError(err); ok {
			return nil, apperror.CredentialExchange(string(se.Body))
		}
		return nil, apperror.CredentialExchange(err.Error())
	}

	lifetime := DefaultTokenLifetime
	if long.ExpiresIn > 0 {
		lifetime = time.Duration(long.ExpiresIn) * time.Second
	}
	expiresAt := s.now().Add(lifetime).UTC()

	cred := &model.SocialCredential{
		UserID:      userID,
		Platform:    model.PlatformFacebook,
		AccessToken: long.AccessToken,
		ExpiresAt:   &expiresAt,
	}
	if err := s.creds.UpsertCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("service/social: storing credential for user %s: %w", userID, err)
	}

	s.logger.Info("facebook connected",
		slog.String("userID", userID),
		slog.Time("expiresAt", expiresAt),
	)
	return cred, nil
}

// Status reports whether userID has a usable Facebook grant.
func (s *SocialService) Status(ctx context.Context, userID string) (*SocialStatus, error) {
	status := &SocialStatus{Platform: model.PlatformFacebook}

	cred, err := s.creds.GetCredential(ctx, userID, model.PlatformFacebook)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return status, nil
		}
		return nil, fmt.Errorf("service/social: loading credential for user %s: %w", userID, err)
	}

	status.Connected = true
	status.Expired = cred.Expired(s.now())
	status.ExpiresAt = cred.ExpiresAt
	return status, nil
}

// Publish posts req for userID.
//
// The stored grant is checked before any upstream call: a missing grant is
// apperror.ErrNotConnected and one whose expiry is not strictly in the
// future is apperror.ErrCredentialExpired. The stored refresh token is never
// used to renew it.
//
// Upstream rejections are apperror.ErrPublishFailed with the raw response
// body in Detail. For Instagram, a failed container creation stops before
// the publish call, and a container whose publish fails is left behind.
func (s *SocialService) Publish(ctx context.Context, userID string, req PublishRequest) (*PublishResult, error) {
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if err := validatePublish(platform, req); err != nil {
		return nil, err
	}

	cred, err := s.creds.GetCredential(ctx, userID, model.PlatformFacebook)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotConnected("Facebook")
		}
		return nil, fmt.Errorf("service/social: loading credential for user %s: %w", userID, err)
	}
	if cred.Expired(s.now()) {
		return nil, apperror.CredentialExpired("Facebook")
	}
	token := cred.AccessToken

	pageID, err := s.graph.PageID(ctx, token)
	if err != nil {
		return nil, s.publishFailed(userID, "Facebook", err)
	}
	if pageID == "" {
		return nil, apperror.PlatformNotLinked("no Facebook Page found for this account")
	}

	result := &PublishResult{Platform: platform, PageID: pageID}

	switch platform {
	case model.TargetFacebook:
		if err := s.graph.PostFeed(ctx, pageID, token, req.Content); err != nil {
			return nil, s.publishFailed(userID, "Facebook", err)
		}
		result.Message = "Posted to Facebook Page."

	case model.TargetInstagram:
		igID, err := s.graph.InstagramAccountID(ctx, pageID, token)
		if err != nil {
			return nil, s.publishFailed(userID, "Instagram", err)
		}
		if igID == "" {
			return nil, apperror.PlatformNotLinked("Instagram account not found")
		}
		result.InstagramAccountID = igID

		creationID, err := s.graph.CreateMedia(ctx, igID, token, req.ImageURL, req.Content)
		if err != nil {
			return nil, s.publishFailed(userID, "Instagram media", err)
		}
		if err := s.graph.PublishMedia(ctx, igID, token, creationID); err != nil {
			return nil, s.publishFailed(userID, "Instagram publish", err)
		}
		result.Message = "Posted to Instagram."
	}

	s.logger.Info("content published",
		slog.String("userID", userID),
		slog.String("platform", platform),
		slog.String("pageID", pageID),
	)
	return result, nil
}

func (s *SocialService) publishFailed(userID, what string, err error) error {
	s.logger.Warn("publish failed",
		slog.String("userID", userID),
		slog.String("step", what),
		slog.String("error", err.Error()),
	)
	if se, ok := graph.IsStatusError(err); ok {
		return apperror.PublishFailed(what, string(se.Body))
	}
	return apperror.PublishFailed(what, err.Error())
}

func validatePublish(platform string, req PublishRequest) error {
	switch platform {
	case model.TargetFacebook:
		if strings.TrimSpace(req.Content) == "" {
			return apperror.ValidationFailed("content", "content is required")
		}
	case model.TargetInstagram:
		u, err := url.Parse(req.ImageURL)
		if req.ImageURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperror.ValidationFailed("imageUrl", "an http(s) image URL is required for Instagram")
		}
	default:
		return apperror.ValidationFailed("platform",
			fmt.Sprintf("unsupported platform %q: use %q or %q", req.Platform, model.TargetFacebook, model.TargetInstagram))
	}
	return nil
}
