package resource

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/services/metrics"
)

const (
	MB = 1 << 20

	MaxResourceSize        = 50 * MB
	MaxLectureFileSize     = 10 * MB
	MaxSubmissionFiles     = 5
	MaxSubmissionTotalSize = 30 * MB
)

// AllowedMIMETypes is the allow-list shared by every upload.
var AllowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// File is an uploaded file, not yet stored.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// MIMEType returns the media type of the file without its parameters.
func (f *File) MIMEType() string {
	mt, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(f.ContentType))
	}
	return mt
}

func fieldErr(field, format string, args ...interface{}) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: fmt.Sprintf(format, args...)})
}

func checkType(field string, f *File) error {
	if mt := f.MIMEType(); !AllowedMIMETypes[mt] {
		return fieldErr(field, "file type %q is not allowed; allowed types are PDF, JPEG, PNG, GIF and WEBP", mt)
	}
	return nil
}

// ValidateResourceFile enforces the single file, 50MB rule of resources.
func ValidateResourceFile(f *File) error {
	if f == nil {
		return fieldErr("file", "this field is required")
	}
	if f.Size > MaxResourceSize {
		return fieldErr("file", "file exceeds 50MB limit")
	}
	return checkType("file", f)
}

// ValidateLectureFiles enforces the 10MB per file rule of lectures.
func ValidateLectureFiles(files []*File) error {
	if len(files) == 0 {
		return fieldErr("files", "at least one file is required")
	}
	for _, f := range files {
		if f.Size > MaxLectureFileSize {
			return fieldErr("files", "file %q exceeds 10MB limit", f.Name)
		}
		if err := checkType("files", f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSubmissionFiles enforces the 5 files / 30MB total rule of submissions. No file at all is fine.
func ValidateSubmissionFiles(files []*File) error {
	if len(files) > MaxSubmissionFiles {
		return fieldErr("files", "too many files (max %d)", MaxSubmissionFiles)
	}
	var total int64
	for _, f := range files {
		total += f.Size
		if err := checkType("files", f); err != nil {
			return err
		}
	}
	if total > MaxSubmissionTotalSize {
		return fieldErr("files", "total upload size exceeds 30MB limit")
	}
	return nil
}

// blobKey builds a unique, URL safe object key under prefix.
func blobKey(prefix, fileName string) string {
	name := unsafeFileChars.ReplaceAllString(path.Base(fileName), "_")
	if name == "" || name == "." || name == "_" {
		name = "file"
	}
	return path.Join(prefix, uuid.NewString()+"-"+name)
}

type uploader struct {
	store  core.BlobStore
	logger core.Logger
}

func (u uploader) put(ctx context.Context, kind, prefix string, f *File) (StoredFile, error) {
	body, err := f.Open()
	if err != nil {
		return StoredFile{}, errors.Wrapf(err, "opening %q", f.Name)
	}
	defer func() { _ = body.Close() }()

	key := blobKey(prefix, f.Name)
	url, err := u.store.Put(ctx, core.BlobObject{Key: key, Body: body, Size: f.Size, ContentType: f.MIMEType()})
	if err != nil {
		return StoredFile{}, errors.Wrapf(err, "storing %q", f.Name)
	}
	metrics.UploadedBytes.WithLabelValues(kind).Add(float64(f.Size))

	return StoredFile{
		ID:       uuid.NewString(),
		FileURL:  url,
		FileKey:  key,
		FileName: f.Name,
		MimeType: f.MIMEType(),
		Size:     f.Size,
	}, nil
}

// putAll stores every file; on failure the files stored so far are removed.
func (u uploader) putAll(ctx context.Context, kind, prefix string, files []*File) ([]StoredFile, error) {
	stored := make([]StoredFile, 0, len(files))
	for _, f := range files {
		sf, err := u.put(ctx, kind, prefix, f)
		if err != nil {
			u.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, sf)
	}
	return stored, nil
}

// discard deletes stored blobs. Failures are only logged: a dangling blob is harmless.
func (u uploader) discard(ctx context.Context, files []StoredFile) {
	for _, f := range files {
		if err := u.store.Delete(ctx, f.FileKey); err != nil {
			u.logger.Warn(fmt.Sprintf("deleting blob %q: %v", f.FileKey, err), err)
		}
	}
}
