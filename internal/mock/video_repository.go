package mock

import (
	"context"
	"sync"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
	"github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// VideoRepository implements both the usecase and the processing repository
// interfaces for tests.
type VideoRepository struct {
	mu sync.Mutex

	// stored values
	VideoRecord *model.Video
	ListOut     []*model.Video

	// captured inputs
	Created       *model.Video
	ListFilter    video.ListFilter
	DeletedID     db.UUID
	ProgressSeen  []int
	DurationSeen  float64
	VerdictSeen   model.Sensitivity
	FailureReason string

	// errors
	CreateErr        error
	GetErr           error
	ListErr          error
	DeleteErr        error
	SetProcessingErr error
	SetDurationErr   error
	SetProgressErr   error
	SetCompletedErr  error
	SetFailedErr     error

	// call flags
	CreateCalled        bool
	GetCalled           bool
	ListCalled          bool
	DeleteCalled        bool
	SetProcessingCalled bool
	SetDurationCalled   bool
	SetCompletedCalled  bool
	SetFailedCalled     bool
}

func (m *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalled = true
	m.Created = v
	return m.CreateErr
}

func (m *VideoRepository) GetByID(ctx context.Context, id db.UUID) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.VideoRecord, nil
}

func (m *VideoRepository) List(ctx context.Context, filter video.ListFilter) ([]*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalled = true
	m.ListFilter = filter
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListOut, nil
}

func (m *VideoRepository) Delete(ctx context.Context, id db.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalled = true
	m.DeletedID = id
	return m.DeleteErr
}

func (m *VideoRepository) SetProcessing(ctx context.Context, id db.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetProcessingCalled = true
	return m.SetProcessingErr
}

func (m *VideoRepository) SetDuration(ctx context.Context, id db.UUID, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetDurationCalled = true
	m.DurationSeen = seconds
	return m.SetDurationErr
}

func (m *VideoRepository) SetProgress(ctx context.Context, id db.UUID, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProgressSeen = append(m.ProgressSeen, percent)
	return m.SetProgressErr
}

func (m *VideoRepository) SetCompleted(ctx context.Context, id db.UUID, verdict model.Sensitivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCompletedCalled = true
	m.VerdictSeen = verdict
	return m.SetCompletedErr
}

func (m *VideoRepository) SetFailed(ctx context.Context, id db.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetFailedCalled = true
	m.FailureReason = reason
	return m.SetFailedErr
}

// Progress returns a copy of the persisted progress sequence.
func (m *VideoRepository) Progress() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.ProgressSeen...)
}
