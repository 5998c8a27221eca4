package model

import "time"

// CaptionRecord is a generated caption kept for history and export.
// Records are append-only and only ever listed for their owner.
type CaptionRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Caption     string    `json:"caption"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ImageRecord is a generated image kept for history and export.
type ImageRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"imageUrl"`
	GeneratedAt time.Time `json:"generatedAt"`
}
