package video

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// Getter retrieves a single video, access-filtered.
type Getter interface {
	GetVideo(ctx context.Context, in GetVideoInput) (*GetVideoOutput, error)
}

type getterSrv struct {
	repo Repository
}

func NewGetter(repo Repository) Getter {
	return &getterSrv{repo: repo}
}

type GetVideoInput struct {
	Caller model.Caller
	ID     db.UUID
}

// GetVideoOutput wraps the record with a cache validity hint: details of a
// video still being processed go stale within seconds, terminal ones barely
// change at all.
type GetVideoOutput struct {
	*model.Video
	ValidUntil time.Time `json:"valid_until"`
}

const (
	activeDetailsTTL   = 10 * time.Second
	terminalDetailsTTL = time.Hour
)

func (s *getterSrv) GetVideo(ctx context.Context, in GetVideoInput) (*GetVideoOutput, error) {
	v, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !CanRead(v, in.Caller) {
		return nil, ErrForbidden
	}

	ttl := activeDetailsTTL
	if v.Status.IsTerminal() {
		ttl = terminalDetailsTTL
	}
	return &GetVideoOutput{Video: v, ValidUntil: time.Now().UTC().Add(ttl)}, nil
}
