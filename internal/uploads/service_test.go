package uploads

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yudhapratama/learnhub/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(Config{Dir: t.TempDir(), MaxWidth: 300})
	require.NoError(t, err)
	return svc
}

func pngFileHeader(t *testing.T, width, height int) *multipart.FileHeader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))
	return fileHeader(t, "cover.png", encoded.Bytes())
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["image"]
	require.Len(t, files, 1)
	return files[0]
}

func TestStoreWritesJPEG(t *testing.T) {
	svc := newTestService(t)

	filename, err := svc.Store(pngFileHeader(t, 100, 80))
	require.NoError(t, err)
	require.Equal(t, ".jpg", filepath.Ext(filename))

	stored, err := imaging.Open(filepath.Join(svc.Dir(), filename))
	require.NoError(t, err)
	require.Equal(t, 100, stored.Bounds().Dx())
	require.Equal(t, 80, stored.Bounds().Dy())
}

func TestStoreDownscalesWideImages(t *testing.T) {
	svc := newTestService(t)

	filename, err := svc.Store(pngFileHeader(t, 600, 300))
	require.NoError(t, err)

	stored, err := imaging.Open(filepath.Join(svc.Dir(), filename))
	require.NoError(t, err)
	require.Equal(t, 300, stored.Bounds().Dx())
	// Aspect ratio is preserved.
	require.Equal(t, 150, stored.Bounds().Dy())
}

func TestStoreRejectsNonImages(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Store(fileHeader(t, "notes.txt", []byte("just text, no pixels")))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestStoreRejectsOversizedUploads(t *testing.T) {
	svc, err := NewService(Config{Dir: t.TempDir(), MaxBytes: 64})
	require.NoError(t, err)

	_, err = svc.Store(pngFileHeader(t, 100, 100))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestRemoveToleratesMissingFiles(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Remove("never-existed.jpg"))
	require.NoError(t, svc.Remove(""))

	filename, err := svc.Store(pngFileHeader(t, 10, 10))
	require.NoError(t, err)
	require.NoError(t, svc.Remove(filename))
	require.NoError(t, svc.Remove(filename))
}
