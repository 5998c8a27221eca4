// Package generator defines the content generation backend used for
// captions and images.
package generator

import "context"

// Image is a generated picture as raw bytes.
type Image struct {
	Data     []byte
	MIMEType string
}

// Generator produces captions and images from a short user prompt.
type Generator interface {
	Caption(ctx context.Context, topic string) (string, error)
	Image(ctx context.Context, prompt string) (*Image, error)
}
