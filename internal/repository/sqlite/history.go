package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

var _ repository.HistoryRepository = (*DB)(nil)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddCaption appends a caption to the owner's history.
// GeneratedAt is set here unless the caller already filled it.
func (db *DB) AddCaption(ctx context.Context, rec *model.CaptionRecord) error {
	return insertCaption(ctx, db.conn, rec)
}

// AddImage appends an image to the owner's history.
func (db *DB) AddImage(ctx context.Context, rec *model.ImageRecord) error {
	return insertImage(ctx, db.conn, rec)
}

// AddGenerated appends a caption and an image in one transaction: either
// both rows are written or neither is.
func (db *DB) AddGenerated(ctx context.Context, caption *model.CaptionRecord, image *model.ImageRecord) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning history insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			caption.ID, image.ID = "", ""
		}
	}()

	if err = insertCaption(ctx, tx, caption); err != nil {
		return err
	}
	if err = insertImage(ctx, tx, image); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing history insert: %w", err)
	}
	return nil
}

func insertCaption(ctx context.Context, ex execer, rec *model.CaptionRecord) error {
	rec.ID = xid.New().String()
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO caption_history (id, user_id, caption, generated_at)
		 VALUES (?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.Caption,
		rec.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding caption for user %s: %w", rec.UserID, err)
	}
	return nil
}

func insertImage(ctx context.Context, ex execer, rec *model.ImageRecord) error {
	rec.ID = xid.New().String()
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO image_history (id, user_id, prompt, image_url, generated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.Prompt,
		rec.ImageURL,
		rec.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding image for user %s: %w", rec.UserID, err)
	}
	return nil
}

// ListCaptions returns the user's captions, newest first.
//
// The WHERE user_id = ? clause is the only thing standing between one user
// and another's history; every list query in this file carries it.
func (db *DB) ListCaptions(ctx context.Context, userID string, opts repository.ListOptions) ([]model.CaptionRecord, error) {
	limit, offset := pageBounds(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, caption, generated_at
		 FROM caption_history
		 WHERE user_id = ?
		 ORDER BY generated_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing captions: %w", err)
	}
	defer rows.Close()

	captions := []model.CaptionRecord{}
	for rows.Next() {
		var c model.CaptionRecord
		if err := rows.Scan(&c.ID, &c.UserID, &c.Caption, &c.GeneratedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning caption row: %w", err)
		}
		captions = append(captions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating captions: %w", err)
	}

	return captions, nil
}

// ListImages returns the user's images, newest first.
func (db *DB) ListImages(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ImageRecord, error) {
	limit, offset := pageBounds(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, prompt, image_url, generated_at
		 FROM image_history
		 WHERE user_id = ?
		 ORDER BY generated_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing images: %w", err)
	}
	defer rows.Close()

	images := []model.ImageRecord{}
	for rows.Next() {
		var i model.ImageRecord
		if err := rows.Scan(&i.ID, &i.UserID, &i.Prompt, &i.ImageURL, &i.GeneratedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning image row: %w", err)
		}
		images = append(images, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating images: %w", err)
	}

	return images, nil
}
