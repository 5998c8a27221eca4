// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage implements all of them on a single *sqlite.DB.
package repository

import (
	"context"

	"github.com/sakif/caption-studio/internal/model"
)

// ListOptions pages through history. Limit 0 means the default page size;
// a negative Limit returns every row (used by the CSV export).
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts a new account. A duplicate username or email is
	// reported as apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// CredentialRepository stores one OAuth grant per (user, platform).
type CredentialRepository interface {
	// UpsertCredential inserts or updates the row keyed by
	// (cred.UserID, cred.Platform) inside a single transaction.
	UpsertCredential(ctx context.Context, cred *model.SocialCredential) error
	GetCredential(ctx context.Context, userID, platform string) (*model.SocialCredential, error)
}

// HistoryRepository is append-only: there is no update or delete.
type HistoryRepository interface {
	AddCaption(ctx context.Context, rec *model.CaptionRecord) error
	AddImage(ctx context.Context, rec *model.ImageRecord) error
	// AddGenerated stores a caption and an image atomically.
	AddGenerated(ctx context.Context, caption *model.CaptionRecord, image *model.ImageRecord) error
	ListCaptions(ctx context.Context, userID string, opts ListOptions) ([]model.CaptionRecord, error)
	ListImages(ctx context.Context, userID string, opts ListOptions) ([]model.ImageRecord, error)
}

type ProfileRepository interface {
	// GetOrCreateProfile returns the user's profile, inserting an empty one
	// on first access.
	GetOrCreateProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
}
