package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

var _ repository.CredentialRepository = (*DB)(nil)

// UpsertCredential inserts or updates the credential keyed by
// (cred.UserID, cred.Platform).
//
// READ-THEN-WRITE IN ONE TRANSACTION:
// The lookup and the INSERT/UPDATE run inside the same Tx, so the token and
// its expiry are committed together or not at all. If two callbacks race,
// the last one to commit wins; the UNIQUE(user_id, platform) index makes a
// duplicate INSERT fail instead of creating a second row.
//
// An update with an empty RefreshToken keeps the stored one: Facebook's
// long-lived exchange never returns a refresh token.
//
// On return cred.ID, cred.CreatedAt and cred.UpdatedAt reflect the stored row.
func (db *DB) UpsertCredential(ctx context.Context, cred *model.SocialCredential) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning credential upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		existingID string
		createdAt  time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM social_credentials WHERE user_id = ? AND platform = ?`,
		cred.UserID, cred.Platform,
	).Scan(&existingID, &createdAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up credential (%s, %s): %w", cred.UserID, cred.Platform, err)
	}

	now := time.Now().UTC()
	expiresAt := nullTime(cred.ExpiresAt)
	refresh := sql.NullString{String: cred.RefreshToken, Valid: cred.RefreshToken != ""}

	if existingID != "" {
		cred.ID = existingID
		cred.CreatedAt = createdAt
		cred.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`UPDATE social_credentials
			 SET access_token = ?, refresh_token = COALESCE(?, refresh_token), expires_at = ?, updated_at = ?
			 WHERE id = ?`,
			cred.AccessToken,
			refresh,
			expiresAt,
			cred.UpdatedAt,
			cred.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating credential %s: %w", cred.ID, err)
		}
	} else {
		cred.ID = xid.New().String()
		cred.CreatedAt = now
		cred.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO social_credentials
			   (id, user_id, platform, access_token, refresh_token, expires_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			cred.ID,
			cred.UserID,
			cred.Platform,
			cred.AccessToken,
			refresh,
			expiresAt,
			cred.CreatedAt,
			cred.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting credential (%s, %s): %w", cred.UserID, cred.Platform, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing credential upsert: %w", err)
	}
	return nil
}

// GetCredential returns the stored grant for (userID, platform), or
// apperror.ErrNotFound when the user never connected that platform.
func (db *DB) GetCredential(ctx context.Context, userID, platform string) (*model.SocialCredential, error) {
	var (
		c         model.SocialCredential
		refresh   sql.NullString
		expiresAt sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, platform, access_token, refresh_token, expires_at, created_at, updated_at
		 FROM social_credentials WHERE user_id = ? AND platform = ?`,
		userID, platform,
	).Scan(
		&c.ID,
		&c.UserID,
		&c.Platform,
		&c.AccessToken,
		&refresh,
		&expiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("credential", userID+"/"+platform)
		}
		return nil, fmt.Errorf("sqlite: getting credential (%s, %s): %w", userID, platform, err)
	}

	c.RefreshToken = refresh.String
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
