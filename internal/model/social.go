package model

import "time"

// PlatformFacebook is the platform tag under which the Facebook grant is
// stored. Instagram publishing reuses the same grant through the linked Page.
const PlatformFacebook = "facebook"

// Publish targets accepted by the social publisher.
const (
	TargetFacebook  = "facebook"
	TargetInstagram = "instagram"
)

// SocialCredential is one user's OAuth grant for one external platform.
//
// At most one row exists per (UserID, Platform); the repository upserts on
// that pair. RefreshToken is stored when the provider returns one but is not
// used to renew an expired grant. ExpiresAt is nil when the provider did not
// report a lifetime at all.
type SocialCredential struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Platform     string     `json:"platform"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Expired reports whether the credential is unusable at now.
// A credential with no expiry never expires.
func (c *SocialCredential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
