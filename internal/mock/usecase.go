package mock

import (
	"context"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
	"github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// Uploader implements the upload use case for handler tests.
type Uploader struct {
	In  video.UploadVideoInput
	Out *model.Video
	Err error

	Called bool
}

func (m *Uploader) UploadVideo(ctx context.Context, in video.UploadVideoInput) (*model.Video, error) {
	m.Called = true
	m.In = in
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

// Getter implements the detail use case for handler and renderer tests.
type Getter struct {
	In  video.GetVideoInput
	Out *video.GetVideoOutput
	Err error

	Called bool
}

func (m *Getter) GetVideo(ctx context.Context, in video.GetVideoInput) (*video.GetVideoOutput, error) {
	m.Called = true
	m.In = in
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

// Lister implements the listing use case for handler tests.
type Lister struct {
	Filter video.ListFilter
	Out    []*model.Video
	Err    error

	Called bool
}

func (m *Lister) ListVideos(ctx context.Context, filter video.ListFilter) ([]*model.Video, error) {
	m.Called = true
	m.Filter = filter
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

// Deleter implements the delete use case for handler tests.
type Deleter struct {
	In  video.DeleteVideoInput
	Err error

	Called bool
}

func (m *Deleter) DeleteVideo(ctx context.Context, in video.DeleteVideoInput) error {
	m.Called = true
	m.In = in
	return m.Err
}

// Streamer implements the streaming use case for handler tests.
type Streamer struct {
	In  video.StreamVideoInput
	Out *video.StreamOutput
	Err error

	Called bool
}

func (m *Streamer) StreamVideo(ctx context.Context, in video.StreamVideoInput) (*video.StreamOutput, error) {
	m.Called = true
	m.In = in
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

// HTTPRenderer implements the renderer port for handler tests.
type HTTPRenderer struct {
	Raw  []byte
	Etag string
	Err  error

	Called   bool
	SeenID   db.UUID
	SeenAuth model.Caller
}

func (m *HTTPRenderer) RenderGetVideo(ctx context.Context, getter video.Getter, caller model.Caller, id db.UUID) ([]byte, string, error) {
	m.Called = true
	m.SeenID = id
	m.SeenAuth = caller
	if m.Err != nil {
		return nil, "", m.Err
	}
	return m.Raw, m.Etag, nil
}
