package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an upload doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrType is returned when a file is not an allowed image type.
var ErrType = errors.New("upload: type not allowed")

// ErrTarget is returned for an unknown upload target.
var ErrTarget = errors.New("upload: unknown target")

// Store is the interface for upload storage backends.
type Store interface {
	// Save stores r under key as a temporary upload.
	Save(ctx context.Context, key, contentType string, size int64, r io.Reader) (*File, error)

	// Claim marks the upload behind ref permanent so Cleanup keeps it.
	Claim(ctx context.Context, ref string) (*File, error)

	// Cleanup removes unclaimed uploads older than maxAge and reports how
	// many were removed.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

// File describes a stored upload.
type File struct {
	// Key is the storage key, e.g. "1/portfolio/cat_1a2b3c4d.png".
	Key string

	// ContentType is the sniffed MIME type.
	ContentType string

	// Size in bytes.
	Size int64

	// URL is the reference written into the document.
	URL string

	// Path is the local filesystem path (DiskStore only).
	Path string

	// Claimed reports whether the upload is permanent.
	Claimed bool

	// CreatedAt is when the upload was saved.
	CreatedAt time.Time
}

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 10MB.
	MaxFileSize int64

	// AllowedTypes are the accepted sniffed MIME types.
	AllowedTypes []string

	// AllowedExtensions are the accepted file extensions, without dot.
	AllowedExtensions []string

	// Targets are the accepted ?target= values. Matching ignores case.
	Targets []string
}

// DefaultConfig returns a Config accepting common web image formats for the
// portfolio, community and profile targets.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:       10 << 20,
		AllowedTypes:      []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "webp"},
		Targets:           []string{"portfolio", "community", "profile"},
	}
}

// Target returns the canonical spelling of target, or ErrTarget.
func (c *Config) Target(target string) (string, error) {
	for _, t := range c.Targets {
		if strings.EqualFold(t, target) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTarget, target)
}

func (c *Config) allowedType(contentType string) bool {
	return contains(c.AllowedTypes, contentType)
}

func (c *Config) allowedExtension(ext string) bool {
	if len(c.AllowedExtensions) == 0 {
		return true
	}
	return contains(c.AllowedExtensions, strings.ToLower(ext))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]`)

// ObjectKey builds the storage key for an upload:
// "{owner}/{target}/{base}_{random}.{ext}".
func ObjectKey(owner, target, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = unsafeChars.ReplaceAllString(base, "")

	name := base + "_" + uuid.NewString()[:8]
	if ext != "" {
		name += "." + ext
	}
	return path.Join(owner, target, name)
}

// limitCopy copies at most max bytes (max <= 0 means unlimited) and returns
// ErrTooLarge when r holds more.
func limitCopy(w io.Writer, r io.Reader, max int64) (int64, error) {
	if max <= 0 {
		return io.Copy(w, r)
	}
	n, err := io.Copy(w, io.LimitReader(r, max+1))
	if err != nil {
		return n, err
	}
	if n > max {
		return n, ErrTooLarge
	}
	return n, nil
}
