package mock

import (
	"context"
	"sync"
	"time"

	"github.com/vidmill/videos-ms-go/internal/db"
)

// Cache implements the details cache interface for tests.
type Cache struct {
	mu sync.Mutex

	// stored values
	DetailsOut []byte
	EtagOut    string

	// captured inputs
	SetDetails    []byte
	SetEtag       string
	SetValidUntil time.Time

	// errors
	GetDetailsErr error
	GetEtagErr    error
	DelDetailsErr error
	DelEtagErr    error

	// call flags
	SetDetailsCalled bool
	SetEtagCalled    bool
	DelDetailsCalled bool
	DelEtagCalled    bool
}

func (m *Cache) GetVideoDetails(ctx context.Context, id db.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetDetailsErr != nil {
		return nil, m.GetDetailsErr
	}
	return m.DetailsOut, nil
}

func (m *Cache) GetEtagVideoDetails(ctx context.Context, id db.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetEtagErr != nil {
		return "", m.GetEtagErr
	}
	return m.EtagOut, nil
}

func (m *Cache) SetVideoDetails(ctx context.Context, id db.UUID, data []byte, validUntil time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetDetailsCalled = true
	m.SetDetails = data
	m.SetValidUntil = validUntil
}

func (m *Cache) SetEtagVideoDetails(ctx context.Context, id db.UUID, etag string, validUntil time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetEtagCalled = true
	m.SetEtag = etag
}

func (m *Cache) DeleteVideoDetails(ctx context.Context, id db.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DelDetailsCalled = true
	return m.DelDetailsErr
}

func (m *Cache) DeleteEtagVideoDetails(ctx context.Context, id db.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DelEtagCalled = true
	return m.DelEtagErr
}
