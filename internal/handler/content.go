package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/repository"
	"github.com/sakif/caption-studio/internal/service"
)

// ContentHandler serves caption and image generation, the engagement
// estimate, and the user's history.
type ContentHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(content *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, logger: logger}
}

type captionRequest struct {
	Topic string `json:"topic"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type engagementRequest struct {
	Caption string `json:"caption"`
}

// HandleCaption generates a caption.
//
// HTTP: POST /api/captions {topic}
func (h *ContentHandler) HandleCaption(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req captionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.content.GenerateCaption(r.Context(), userID, req.Topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleImage generates an image and returns its public URL.
//
// HTTP: POST /api/images {prompt}
func (h *ContentHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req promptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.content.GenerateImage(r.Context(), userID, req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleGenerate produces a caption and an image from one prompt.
//
// HTTP: POST /api/generate {prompt}
func (h *ContentHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req promptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	out, err := h.content.GenerateBoth(r.Context(), userID, req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleEngagement scores a caption. Nothing is stored.
//
// HTTP: POST /api/engagement {caption}
func (h *ContentHandler) HandleEngagement(w http.ResponseWriter, r *http.Request) {
	var req engagementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	est, err := h.content.EstimateEngagement(req.Caption)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// HandleHistory returns one page of captions and images, newest first.
//
// HTTP: GET /api/history?limit=20&offset=0
func (h *ContentHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	hist, err := h.content.History(r.Context(), userID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandleExportCaptions downloads every caption as CSV.
//
// HTTP: GET /export/captions.csv
func (h *ContentHandler) HandleExportCaptions(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "captions.csv", h.content.ExportCaptionsCSV)
}

// HandleExportImages downloads every image record as CSV.
//
// HTTP: GET /export/images.csv
func (h *ContentHandler) HandleExportImages(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "images.csv", h.content.ExportImagesCSV)
}

// export renders into a buffer first so a failure can still become a JSON
// error instead of a truncated download.
func (h *ContentHandler) export(
	w http.ResponseWriter,
	r *http.Request,
	filename string,
	write func(ctx context.Context, userID string, w io.Writer) error,
) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(r.Context(), userID, &buf); err != nil {
		h.logger.Error("csv export failed",
			slog.String("userID", userID),
			slog.String("file", filename),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// listOptions parses limit and offset. Missing values fall back to the
// repository defaults.
func listOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperror.ValidationFailed("offset", "offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	return opts, nil
}
