package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// GetOrCreateProfile returns the profile for userID, creating an empty one
// the first time. INSERT OR IGNORE makes the create step a no-op when the
// row already exists, so two concurrent first reads cannot both insert.
func (db *DB) GetOrCreateProfile(ctx context.Context, userID string) (*model.Profile, error) {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO profiles (user_id, avatar_url, bio, updated_at)
		 VALUES (?, '', '', ?)`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating profile for user %s: %w", userID, err)
	}

	var p model.Profile
	err = db.conn.QueryRowContext(ctx,
		`SELECT user_id, avatar_url, bio, updated_at FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.AvatarURL, &p.Bio, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting profile for user %s: %w", userID, err)
	}
	return &p, nil
}

// UpdateProfile overwrites avatar and bio. The profile must already exist.
func (db *DB) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET avatar_url = ?, bio = ?, updated_at = ? WHERE user_id = ?`,
		profile.AvatarURL,
		profile.Bio,
		profile.UpdatedAt,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile for user %s: %w", profile.UserID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", profile.UserID)
	}
	return nil
}
