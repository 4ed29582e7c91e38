package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// FSStorage is the legacy local-filesystem asset store. It serves the same
// OpenRange contract as the MinIO adapter so the streaming path does not
// care which backend holds the asset.
type FSStorage struct {
	root string
}

// compile-time check: *FSStorage must satisfy video.Storage
var _ video.Storage = (*FSStorage)(nil)

func NewFSStorage(root string) (*FSStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create storage root %q: %v", video.ErrInternal, root, err)
	}
	return &FSStorage{root: root}, nil
}

// path resolves a key inside the root, refusing traversal outside it.
func (s *FSStorage) path(fileKey string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(fileKey))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", video.ErrInternal, err)
	}
	pAbs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", video.ErrInternal, err)
	}
	if pAbs != rootAbs && !strings.HasPrefix(pAbs, rootAbs+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: key %q escapes storage root", video.ErrInternal, fileKey)
	}
	return p, nil
}

func (s *FSStorage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	log.Printf("saving file %q under %q...", fileKey, s.root)

	p, err := s.path(fileKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("%w: %v", video.ErrInternal, err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("%w: %v", video.ErrInternal, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return fmt.Errorf("%w: %v", video.ErrInternal, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", video.ErrInternal, err)
	}
	return nil
}

func (s *FSStorage) StatFile(ctx context.Context, fileKey string) (video.FileInfo, error) {
	p, err := s.path(fileKey)
	if err != nil {
		return video.FileInfo{}, err
	}

	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return video.FileInfo{}, video.ErrObjectNotFound
		}
		return video.FileInfo{}, fmt.Errorf("%w: %v", video.ErrInternal, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return video.FileInfo{SizeBytes: st.Size(), ContentType: contentType}, nil
}

// OpenRange reads bytes [start, end] of the file; end < 0 reads to EOF.
func (s *FSStorage) OpenRange(ctx context.Context, fileKey string, start, end int64) (io.ReadCloser, error) {
	p, err := s.path(fileKey)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, video.ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", video.ErrInternal, err)
	}

	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %v", video.ErrInternal, err)
		}
	}
	if end < 0 {
		return f, nil
	}
	return &limitedFile{f: f, r: io.LimitReader(f, end-start+1)}, nil
}

func (s *FSStorage) RemoveFile(ctx context.Context, fileKey string) error {
	log.Printf("removing file %q under %q...", fileKey, s.root)

	p, err := s.path(fileKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return video.ErrObjectNotFound
		}
		return fmt.Errorf("%w: %v", video.ErrInternal, err)
	}
	return nil
}

// limitedFile bounds reads to the requested span while keeping Close on the
// underlying file.
type limitedFile struct {
	f *os.File
	r io.Reader
}

func (l *limitedFile) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedFile) Close() error               { return l.f.Close() }
