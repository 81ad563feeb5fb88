package upload

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const metaSuffix = ".meta"

// DiskStore stores uploads on the local filesystem.
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64

	mu sync.Mutex
}

type diskMeta struct {
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Claimed     bool      `json:"claimed"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDiskStore creates a DiskStore rooted at dir. References are baseURL
// followed by the storage key. maxSize of 0 means no limit.
func NewDiskStore(dir, baseURL string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &DiskStore{dir: dir, baseURL: baseURL, maxSize: maxSize}, nil
}

// Dir returns the root directory.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes r under key.
func (s *DiskStore) Save(ctx context.Context, key, contentType string, size int64, r io.Reader) (*File, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return nil, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}
	written, err := limitCopy(f, r, s.maxSize)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p)
		return nil, err
	}

	meta := diskMeta{
		ContentType: contentType,
		Size:        written,
		CreatedAt:   time.Now(),
	}
	if err := s.saveMeta(p, meta); err != nil {
		os.Remove(p)
		return nil, err
	}
	return s.file(key, p, meta), nil
}

// Claim marks the upload behind ref permanent.
func (s *DiskStore) Claim(ctx context.Context, ref string) (*File, error) {
	key, ok := s.Key(ref)
	if !ok {
		return nil, ErrNotFound
	}
	p, err := s.path(key)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta(p)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := os.Stat(p); err != nil {
		return nil, ErrNotFound
	}
	if !meta.Claimed {
		meta.Claimed = true
		if err := s.saveMeta(p, meta); err != nil {
			return nil, err
		}
	}
	return s.file(key, p, meta), nil
}

// Cleanup removes unclaimed uploads older than maxAge.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) {
			return nil
		}

		meta, err := s.loadMeta(p)
		if err != nil {
			// Orphan without a sidecar: fall back to the file's mtime.
			info, ierr := d.Info()
			if ierr != nil || !info.ModTime().Before(cutoff) {
				return nil
			}
		} else if meta.Claimed || !meta.CreatedAt.Before(cutoff) {
			return nil
		}

		os.Remove(p)
		os.Remove(p + metaSuffix)
		removed++
		return nil
	})
	return removed, err
}

// Key returns the storage key behind ref.
func (s *DiskStore) Key(ref string) (string, bool) {
	key, ok := strings.CutPrefix(ref, s.baseURL)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// path maps key into the store directory, refusing keys that escape it.
func (s *DiskStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *DiskStore) file(key, p string, meta diskMeta) *File {
	return &File{
		Key:         key,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		URL:         s.baseURL + key,
		Path:        p,
		Claimed:     meta.Claimed,
		CreatedAt:   meta.CreatedAt,
	}
}

func (s *DiskStore) saveMeta(p string, meta diskMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(p+metaSuffix, data, 0644)
}

func (s *DiskStore) loadMeta(p string) (diskMeta, error) {
	var meta diskMeta
	data, err := os.ReadFile(p + metaSuffix)
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}
