// Package upload validates image uploads and hands them to a Storage.
package upload

import (
	"context"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"postboard/domain"
)

// DefaultMaxSize is the largest accepted upload, in bytes.
const DefaultMaxSize = 5 << 20

// ErrRejected is returned for files that are not an accepted image.
var ErrRejected = errors.New("upload rejected")

// allowed maps accepted extensions to the MIME type the content must sniff as.
var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Storage persists an accepted file under name and returns the URL path it
// is served from. Remove takes that URL path back.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, urlPath string) error
}

type Uploader struct {
	Storage Storage
	MaxSize int64
}

func New(storage Storage, maxSize int64) *Uploader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Uploader{Storage: storage, MaxSize: maxSize}
}

// Accept validates and stores the file behind fh. A nil fh means no file was
// submitted and yields domain.NoImage.
func (u *Uploader) Accept(ctx context.Context, fh *multipart.FileHeader) (domain.Image, error) {
	if fh == nil {
		return domain.NoImage(), nil
	}
	if fh.Size > u.MaxSize {
		return domain.NoImage(), errors.Wrapf(ErrRejected, "%s is %d bytes", fh.Filename, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return domain.NoImage(), errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, u.MaxSize+1))
	if err != nil {
		return domain.NoImage(), errors.Wrap(err, "reading upload")
	}
	if int64(len(data)) > u.MaxSize {
		return domain.NoImage(), errors.Wrapf(ErrRejected, "%s exceeds %d bytes", fh.Filename, u.MaxSize)
	}

	ext, err := Validate(fh.Filename, data)
	if err != nil {
		return domain.NoImage(), err
	}

	path, err := u.Storage.Save(ctx, uuid.NewString()+ext, data)
	if err != nil {
		return domain.NoImage(), errors.Wrap(err, "storing upload")
	}
	return domain.SomeImage(path), nil
}

// Discard removes a file stored by Accept. It is a no-op for domain.NoImage.
func (u *Uploader) Discard(ctx context.Context, image domain.Image) error {
	urlPath, ok := image.Get()
	if !ok {
		return nil
	}
	return errors.Wrapf(u.Storage.Remove(ctx, urlPath), "discarding %s", urlPath)
}

// Validate checks that filename has an accepted extension and that data
// sniffs as the matching image type. It returns the lower-cased extension.
func Validate(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := allowed[ext]
	if !ok {
		return "", errors.Wrapf(ErrRejected, "extension %q", ext)
	}
	got := mimetype.Detect(data)
	if !got.Is(want) {
		return "", errors.Wrapf(ErrRejected, "content type %s", got.String())
	}
	return ext, nil
}
