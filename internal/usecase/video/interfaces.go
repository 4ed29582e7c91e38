package video

import (
	"context"
	"io"
	"time"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// ListFilter narrows the video listing. Pointer fields are inactive when nil.
type ListFilter struct {
	Caller        model.Caller
	OwnedOnly     bool
	SafetyStatus  string // "", "safe" or "flagged"
	Category      string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	MinSize       *int64
	MaxSize       *int64
	MinDuration   *float64
	MaxDuration   *float64
}

type Repository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id db.UUID) (*model.Video, error)
	List(ctx context.Context, filter ListFilter) ([]*model.Video, error)
	// Delete removes the record and reports sql.ErrNoRows when it was already gone.
	Delete(ctx context.Context, id db.UUID) error
}

// FileInfo carries store-level metadata about an asset.
type FileInfo struct {
	SizeBytes   int64
	ContentType string
}

// Storage is the asset store: durable blobs addressed by opaque key,
// readable by byte range. Both the MinIO adapter and the legacy local
// filesystem adapter satisfy it.
type Storage interface {
	SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error
	StatFile(ctx context.Context, fileKey string) (FileInfo, error)
	// OpenRange streams bytes [start, end] inclusive; end < 0 means end-of-file.
	OpenRange(ctx context.Context, fileKey string, start, end int64) (io.ReadCloser, error)
	RemoveFile(ctx context.Context, fileKey string) error
}

// Launcher hands a freshly ingested video to the processing state machine.
// Implementations run it on a background goroutine or enqueue a task for the
// worker; either way the caller returns immediately.
type Launcher interface {
	LaunchProcessing(ctx context.Context, id db.UUID) error
}

// Canceller stops an in-flight processing run, if one is active locally.
type Canceller interface {
	Cancel(id db.UUID)
}

// Cache stores rendered video details alongside their ETag.
type Cache interface {
	GetVideoDetails(ctx context.Context, id db.UUID) ([]byte, error)
	GetEtagVideoDetails(ctx context.Context, id db.UUID) (string, error)
	SetVideoDetails(ctx context.Context, id db.UUID, data []byte, validUntil time.Time)
	SetEtagVideoDetails(ctx context.Context, id db.UUID, etag string, validUntil time.Time)
	DeleteVideoDetails(ctx context.Context, id db.UUID) error
	DeleteEtagVideoDetails(ctx context.Context, id db.UUID) error
}
