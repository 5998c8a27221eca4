// Package media stores generated images on local disk so they can be served
// from /media/ and handed to Instagram as a public image_url.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/caption-studio/internal/generator"
)

// URLPrefix is the path the server mounts the media directory under.
const URLPrefix = "/media/"

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Store writes images into a directory and builds their public URLs.
type Store struct {
	dir     string
	baseURL string
}

// NewStore creates dir if needed. publicBaseURL is the externally reachable
// origin of this server, e.g. "https://studio.example.com".
func NewStore(dir, publicBaseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: creating %s: %w", dir, err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir is the directory served under URLPrefix.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes img under a fresh name and returns its public URL.
// The file is written to a temp name first so a half-written image is
// never served.
func (s *Store) Save(img *generator.Image) (string, error) {
	ext, ok := extensions[img.MIMEType]
	if !ok {
		ext = ".png"
	}
	name := xid.New().String() + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("media: creating temp file: %w", err)
	}
	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("media: writing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("media: closing image: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("media: chmod image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("media: renaming image: %w", err)
	}

	return s.baseURL + URLPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save. A file that is
// already gone is not an error.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("media: %q is not a stored image", url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: removing %s: %w", name, err)
	}
	return nil
}
