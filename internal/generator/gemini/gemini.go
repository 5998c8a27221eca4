// Package gemini implements generator.Generator with Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sakif/caption-studio/internal/generator"
)

// CaptionInstruction is the system instruction sent with every caption request.
const CaptionInstruction = "Generate catchy, brand-friendly captions for social media."

// Config holds the settings for the Gemini generator.
type Config struct {
	APIKey     string
	TextModel  string
	ImageModel string

	// BaseURL overrides the API endpoint. Tests point it at httptest.
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultConfig returns the models used when none are configured.
func DefaultConfig() Config {
	return Config{
		TextModel:  "gemini-2.5-flash",
		ImageModel: "imagen-4.0-generate-001",
	}
}

// Generator calls Gemini for captions and Imagen for pictures.
type Generator struct {
	client     *genai.Client
	textModel  string
	imageModel string
	logger     *slog.Logger
}

var _ generator.Generator = (*Generator)(nil)

// New creates a Generator. The genai client holds no connections of its
// own, so there is nothing to close.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	defaults := DefaultConfig()
	if cfg.TextModel == "" {
		cfg.TextModel = defaults.TextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaults.ImageModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Generator{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		logger:     logger,
	}, nil
}

// Caption asks the text model for a single caption about topic.
func (g *Generator) Caption(ctx context.Context, topic string) (string, error) {
	start := time.Now()

	resp, err := g.client.Models.GenerateContent(ctx,
		g.textModel,
		genai.Text("Generate a caption for: "+topic),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(CaptionInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.9),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generating caption: %w", err)
	}

	caption := strings.TrimSpace(resp.Text())
	if caption == "" {
		return "", errors.New("gemini: model returned an empty caption")
	}

	g.logger.Debug("caption generated",
		slog.String("model", g.textModel),
		slog.Duration("duration", time.Since(start)),
	)
	return caption, nil
}

// Image asks the image model for one square PNG.
func (g *Generator) Image(ctx context.Context, prompt string) (*generator.Image, error) {
	start := time.Now()

	resp, err := g.client.Models.GenerateImages(ctx,
		g.imageModel,
		prompt,
		&genai.GenerateImagesConfig{
			NumberOfImages: 1,
			AspectRatio:    "1:1",
			OutputMIMEType: "image/png",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: generating image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, errors.New("gemini: model returned no image")
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	g.logger.Debug("image generated",
		slog.String("model", g.imageModel),
		slog.Int("bytes", len(img.ImageBytes)),
		slog.Duration("duration", time.Since(start)),
	)
	return &generator.Image{Data: img.ImageBytes, MIMEType: mime}, nil
}
