package cache

import (
	"context"
	"time"

	"github.com/vidmill/videos-ms-go/internal/db"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// NoopCache backs deployments without Redis: every read is a miss and
// writes are dropped.
type NoopCache struct{}

// compile-time check: *NoopCache must satisfy video.Cache
var _ videoSvc.Cache = (*NoopCache)(nil)

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) GetVideoDetails(ctx context.Context, id db.UUID) ([]byte, error) {
	return nil, nil // always cache miss
}

func (n *NoopCache) GetEtagVideoDetails(ctx context.Context, id db.UUID) (string, error) {
	return "", nil
}

func (n *NoopCache) SetVideoDetails(ctx context.Context, id db.UUID, data []byte, validUntil time.Time) {
}

func (n *NoopCache) SetEtagVideoDetails(ctx context.Context, id db.UUID, etag string, validUntil time.Time) {
}

func (n *NoopCache) DeleteVideoDetails(ctx context.Context, id db.UUID) error { return nil }

func (n *NoopCache) DeleteEtagVideoDetails(ctx context.Context, id db.UUID) error {
	return nil
}
