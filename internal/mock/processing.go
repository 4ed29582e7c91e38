package mock

import (
	"context"
	"sync"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// Launcher records processing launches.
type Launcher struct {
	mu        sync.Mutex
	LaunchErr error

	LaunchCalled bool
	LaunchedID   db.UUID
}

func (m *Launcher) LaunchProcessing(ctx context.Context, id db.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LaunchCalled = true
	m.LaunchedID = id
	return m.LaunchErr
}

// Canceller records cancellation requests.
type Canceller struct {
	mu sync.Mutex

	CancelCalled bool
	CancelledID  db.UUID
}

func (m *Canceller) Cancel(id db.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalled = true
	m.CancelledID = id
}

// Prober returns a fixed duration or an error.
type Prober struct {
	DurationOut float64
	DurationErr error
}

func (m *Prober) Duration(ctx context.Context, assetKey string) (float64, error) {
	if m.DurationErr != nil {
		return 0, m.DurationErr
	}
	return m.DurationOut, nil
}

// Classifier returns a fixed verdict or an error.
type Classifier struct {
	VerdictOut  model.Sensitivity
	ClassifyErr error
}

func (m *Classifier) Classify(ctx context.Context, id db.UUID) (model.Sensitivity, error) {
	if m.ClassifyErr != nil {
		return model.Sensitivity{}, m.ClassifyErr
	}
	return m.VerdictOut, nil
}
