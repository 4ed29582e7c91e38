package video

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// Streamer resolves a video's bytes honoring an optional Range request.
// There is exactly one range-serving code path; which store backs the asset
// is the Storage adapter's business.
type Streamer interface {
	StreamVideo(ctx context.Context, in StreamVideoInput) (*StreamOutput, error)
}

type streamerSrv struct {
	repo Repository
	strg Storage
}

func NewStreamer(repo Repository, strg Storage) Streamer {
	return &streamerSrv{repo: repo, strg: strg}
}

type StreamVideoInput struct {
	Caller model.Caller
	ID     db.UUID
	// RangeHeader is the raw Range request header, empty for full content.
	RangeHeader string
}

// StreamOutput is what the HTTP layer needs to write the response.
// Range is nil when the full content is served.
type StreamOutput struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	TotalSize     int64
	Range         *ByteRange
}

func (s *streamerSrv) StreamVideo(ctx context.Context, in StreamVideoInput) (*StreamOutput, error) {
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

	info, err := s.strg.StatFile(ctx, v.AssetKey)
	if err != nil {
		return nil, err
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	if in.RangeHeader == "" {
		return s.full(ctx, v.AssetKey, info.SizeBytes, contentType)
	}

	rng, err := ParseRange(in.RangeHeader, info.SizeBytes)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			// a malformed Range header is ignored, not rejected
			return s.full(ctx, v.AssetKey, info.SizeBytes, contentType)
		}
		return nil, err
	}

	body, err := s.strg.OpenRange(ctx, v.AssetKey, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	return &StreamOutput{
		Body:          body,
		ContentType:   contentType,
		ContentLength: rng.Length(),
		TotalSize:     info.SizeBytes,
		Range:         &rng,
	}, nil
}

func (s *streamerSrv) full(ctx context.Context, assetKey string, size int64, contentType string) (*StreamOutput, error) {
	body, err := s.strg.OpenRange(ctx, assetKey, 0, -1)
	if err != nil {
		return nil, err
	}
	return &StreamOutput{
		Body:          body,
		ContentType:   contentType,
		ContentLength: size,
		TotalSize:     size,
	}, nil
}
