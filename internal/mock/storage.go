package mock

import (
	"context"
	"io"
	"sync"

	"github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// Storage implements the asset store interface for tests.
type Storage struct {
	mu sync.Mutex

	// stored values
	StatInfoOut video.FileInfo
	RangeOut    io.ReadCloser

	// captured inputs
	SavedKey    string
	SavedSize   int64
	SavedOpts   map[string]string
	SavedBody   []byte
	RemovedKeys []string
	RangeStart  int64
	RangeEnd    int64

	// errors
	SaveErr   error
	StatErr   error
	OpenErr   error
	RemoveErr error

	// call flags
	SaveCalled   bool
	StatCalled   bool
	OpenCalled   bool
	RemoveCalled bool
}

func (m *Storage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalled = true
	m.SavedKey = fileKey
	m.SavedSize = fileSize
	m.SavedOpts = opts
	if reader != nil {
		m.SavedBody, _ = io.ReadAll(reader)
	}
	return m.SaveErr
}

func (m *Storage) StatFile(ctx context.Context, fileKey string) (video.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatCalled = true
	if m.StatErr != nil {
		return video.FileInfo{}, m.StatErr
	}
	return m.StatInfoOut, nil
}

func (m *Storage) OpenRange(ctx context.Context, fileKey string, start, end int64) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenCalled = true
	m.RangeStart = start
	m.RangeEnd = end
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return m.RangeOut, nil
}

func (m *Storage) RemoveFile(ctx context.Context, fileKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalled = true
	m.RemovedKeys = append(m.RemovedKeys, fileKey)
	return m.RemoveErr
}
