package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/engagement"
	"github.com/sakif/caption-studio/internal/generator"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

const (
	MaxPromptLength  = 1000
	MaxCaptionLength = 5000
)

// ImageSaver stores generated image bytes and returns their public URL
// (implemented by media.Store).
type ImageSaver interface {
	Save(img *generator.Image) (string, error)
	Remove(url string) error
}

// ContentService generates captions and images, records them in the
// user's history and exports that history.
type ContentService struct {
	gen       generator.Generator
	images    ImageSaver
	history   repository.HistoryRepository
	estimator *engagement.Estimator
	logger    *slog.Logger
}

// NewContentService creates a ContentService.
func NewContentService(
	gen generator.Generator,
	images ImageSaver,
	history repository.HistoryRepository,
	estimator *engagement.Estimator,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		gen:       gen,
		images:    images,
		history:   history,
		estimator: estimator,
		logger:    logger,
	}
}

// Generated is the result of GenerateBoth.
type Generated struct {
	Caption *model.CaptionRecord `json:"caption"`
	Image   *model.ImageRecord   `json:"image"`
}

// History is a user's generated content, newest first.
type History struct {
	Captions []model.CaptionRecord `json:"captions"`
	Images   []model.ImageRecord   `json:"images"`
}

// GenerateCaption asks the generator for a caption about topic and appends
// it to userID's history.
func (s *ContentService) GenerateCaption(ctx context.Context, userID, topic string) (*model.CaptionRecord, error) {
	topic, err := cleanPrompt("topic", topic)
	if err != nil {
		return nil, err
	}

	caption, err := s.caption(ctx, topic)
	if err != nil {
		return nil, err
	}

	rec := &model.CaptionRecord{UserID: userID, Caption: caption}
	if err := s.history.AddCaption(ctx, rec); err != nil {
		return nil, fmt.Errorf("service/content: recording caption: %w", err)
	}

	s.logger.Info("caption generated", slog.String("userID", userID), slog.String("id", rec.ID))
	return rec, nil
}

// GenerateImage asks the generator for an image, stores the bytes and
// appends the public URL to userID's history.
func (s *ContentService) GenerateImage(ctx context.Context, userID, prompt string) (*model.ImageRecord, error) {
	prompt, err := cleanPrompt("prompt", prompt)
	if err != nil {
		return nil, err
	}

	url, err := s.image(ctx, prompt)
	if err != nil {
		return nil, err
	}

	rec := &model.ImageRecord{UserID: userID, Prompt: prompt, ImageURL: url}
	if err := s.history.AddImage(ctx, rec); err != nil {
		return nil, fmt.Errorf("service/content: recording image: %w", err)
	}

	s.logger.Info("image generated", slog.String("userID", userID), slog.String("id", rec.ID))
	return rec, nil
}

// GenerateBoth runs caption and image generation for the same prompt
// concurrently. History is written only when both succeed, in a single
// transaction; the first failure cancels the other request. A saved image
// file is removed again when the pair is not recorded.
func (s *ContentService) GenerateBoth(ctx context.Context, userID, prompt string) (*Generated, error) {
	prompt, err := cleanPrompt("prompt", prompt)
	if err != nil {
		return nil, err
	}

	var caption, url string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		caption, err = s.caption(gctx, prompt)
		return err
	})
	g.Go(func() error {
		var err error
		url, err = s.image(gctx, prompt)
		return err
	})
	if err := g.Wait(); err != nil {
		s.discardImage(url)
		return nil, err
	}

	// Both records share one timestamp so they sort together.
	now := time.Now().UTC()
	out := &Generated{
		Caption: &model.CaptionRecord{UserID: userID, Caption: caption, GeneratedAt: now},
		Image:   &model.ImageRecord{UserID: userID, Prompt: prompt, ImageURL: url, GeneratedAt: now},
	}
	if err := s.history.AddGenerated(ctx, out.Caption, out.Image); err != nil {
		s.discardImage(url)
		return nil, fmt.Errorf("service/content: recording caption and image: %w", err)
	}

	s.logger.Info("caption and image generated", slog.String("userID", userID))
	return out, nil
}

func (s *ContentService) caption(ctx context.Context, topic string) (string, error) {
	caption, err := s.gen.Caption(ctx, topic)
	if err != nil {
		s.logger.Error("caption generation failed", slog.String("error", err.Error()))
		return "", apperror.Upstream("caption generation failed", err)
	}
	return caption, nil
}

func (s *ContentService) image(ctx context.Context, prompt string) (string, error) {
	img, err := s.gen.Image(ctx, prompt)
	if err != nil {
		s.logger.Error("image generation failed", slog.String("error", err.Error()))
		return "", apperror.Upstream("image generation failed", err)
	}
	url, err := s.images.Save(img)
	if err != nil {
		return "", fmt.Errorf("service/content: saving image: %w", err)
	}
	return url, nil
}

// discardImage deletes an image file that will not be recorded. Failure
// only leaves an unreferenced file behind, so it is logged.
func (s *ContentService) discardImage(url string) {
	if url == "" {
		return
	}
	if err := s.images.Remove(url); err != nil {
		s.logger.Warn("removing unrecorded image failed",
			slog.String("url", url), slog.String("error", err.Error()))
	}
}

// EstimateEngagement scores caption. It makes no external call.
func (s *ContentService) EstimateEngagement(caption string) (engagement.Estimate, error) {
	if strings.TrimSpace(caption) == "" {
		return engagement.Estimate{}, apperror.ValidationFailed("caption", "caption is required")
	}
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return engagement.Estimate{}, apperror.ValidationFailed("caption",
			fmt.Sprintf("caption must be %d characters or less", MaxCaptionLength))
	}
	return s.estimator.Estimate(caption), nil
}

// History returns one page of userID's captions and images.
func (s *ContentService) History(ctx context.Context, userID string, opts repository.ListOptions) (*History, error) {
	captions, err := s.history.ListCaptions(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing captions: %w", err)
	}
	images, err := s.history.ListImages(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing images: %w", err)
	}
	return &History{Captions: captions, Images: images}, nil
}

// ExportCaptionsCSV writes all of userID's captions as CSV with the header
// "Caption,Generated At". Times are RFC 3339 in UTC.
func (s *ContentService) ExportCaptionsCSV(ctx context.Context, userID string, w io.Writer) error {
	captions, err := s.history.ListCaptions(ctx, userID, repository.ListOptions{Limit: -1})
	if err != nil {
		return fmt.Errorf("service/content: listing captions: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Caption", "Generated At"}); err != nil {
		return fmt.Errorf("service/content: writing csv header: %w", err)
	}
	for _, c := range captions {
		if err := cw.Write([]string{c.Caption, c.GeneratedAt.UTC().Format(time.RFC3339)}); err != nil {
			return fmt.Errorf("service/content: writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service/content: flushing csv: %w", err)
	}
	return nil
}

// ExportImagesCSV writes all of userID's images as CSV with the header
// "Prompt,Image URL,Generated At".
func (s *ContentService) ExportImagesCSV(ctx context.Context, userID string, w io.Writer) error {
	images, err := s.history.ListImages(ctx, userID, repository.ListOptions{Limit: -1})
	if err != nil {
		return fmt.Errorf("service/content: listing images: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Prompt", "Image URL", "Generated At"}); err != nil {
		return fmt.Errorf("service/content: writing csv header: %w", err)
	}
	for _, i := range images {
		if err := cw.Write([]string{i.Prompt, i.ImageURL, i.GeneratedAt.UTC().Format(time.RFC3339)}); err != nil {
			return fmt.Errorf("service/content: writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service/content: flushing csv: %w", err)
	}
	return nil
}

func cleanPrompt(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if utf8.RuneCountInString(s) > MaxPromptLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxPromptLength))
	}
	return s, nil
}
