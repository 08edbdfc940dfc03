// Package uploads stores processed course images on local disk.
package uploads

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/yudhapratama/learnhub/pkg/errors"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/metrics"
)

const (
	defaultMaxBytes = 5 << 20
	defaultMaxWidth = 1200
	defaultQuality  = 80
)

// Config controls upload limits and the on-disk location.
type Config struct {
	// Dir is the directory processed images are written to.
	Dir string
	// MaxBytes caps the accepted upload size.
	MaxBytes int64
	// MaxWidth is the pixel width images are downscaled to when wider.
	MaxWidth int
	// Quality is the JPEG quality of stored images.
	Quality int
}

// Service validates, downscales, and persists uploaded images. Every stored
// image is re-encoded as JPEG, which also strips whatever metadata and
// payload the original file carried.
type Service struct {
	dir      string
	maxBytes int64
	maxWidth int
	quality  int
	log      *zap.Logger
}

// NewService prepares the upload directory and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("uploads: directory is required")
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create directory: %w", err)
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	maxWidth := cfg.MaxWidth
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	return &Service{
		dir:      cfg.Dir,
		maxBytes: maxBytes,
		maxWidth: maxWidth,
		quality:  quality,
		log:      logger.WithModule("uploads"),
	}, nil
}

// Store decodes an uploaded image, downscales it when wider than the limit,
// and writes it as JPEG under a random filename. It returns the stored
// filename.
func (s *Service) Store(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", apperrors.NewBadRequest("Image file is required")
	}
	if fileHeader.Size > s.maxBytes {
		return "", apperrors.NewBadRequest(fmt.Sprintf("Image must not exceed %d MB", s.maxBytes>>20))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", apperrors.Wrap(err, "failed to read upload")
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", apperrors.NewBadRequest("File is not a supported image")
	}

	if img.Bounds().Dx() > s.maxWidth {
		img = imaging.Resize(img, s.maxWidth, 0, imaging.Lanczos)
	}

	filename := uuid.NewString() + ".jpg"
	path := filepath.Join(s.dir, filename)
	if err := imaging.Save(img, path, imaging.JPEGQuality(s.quality)); err != nil {
		return "", apperrors.Wrap(err, "failed to store image")
	}

	metrics.ImagesProcessed.Inc()
	return filename, nil
}

// Remove deletes a stored image. A missing file is not an error.
func (s *Service) Remove(filename string) error {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("uploads: remove %s: %w", filename, err)
	}
	return nil
}

// Dir reports the directory images are served from.
func (s *Service) Dir() string { return s.dir }
