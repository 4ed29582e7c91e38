package video

import (
	"context"

	"github.com/vidmill/videos-ms-go/internal/model"
)

// Lister returns the videos visible to the caller, filtered.
type Lister interface {
	ListVideos(ctx context.Context, filter ListFilter) ([]*model.Video, error)
}

type listerSrv struct {
	repo Repository
}

func NewLister(repo Repository) Lister {
	return &listerSrv{repo: repo}
}

// ListVideos delegates to the repository; the visibility rule (admins see
// everything, everyone else sees public plus their own) is part of the query.
func (s *listerSrv) ListVideos(ctx context.Context, filter ListFilter) ([]*model.Video, error) {
	return s.repo.List(ctx, filter)
}
