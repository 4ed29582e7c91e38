package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// HTTPRenderer mediates between HTTP handlers and the video getter use case.
// It provides caching capabilities and returns both the JSON representation of
// the result as well as an ETag value derived from it.
type HTTPRenderer interface {
	// RenderGetVideo returns the cached JSON result and its ETag if available or
	// executes the underlying use case and caches the output otherwise.
	RenderGetVideo(ctx context.Context, getter videoSvc.Getter, caller model.Caller, id db.UUID) ([]byte, string, error)
}

type httpRenderer struct {
	cache videoSvc.Cache
}

// compile-time check: *httpRenderer must satisfy HTTPRenderer
var _ HTTPRenderer = (*httpRenderer)(nil)

// NewHTTPRenderer creates a new HTTPRenderer implementation.
func NewHTTPRenderer(cache videoSvc.Cache) HTTPRenderer {
	return &httpRenderer{cache: cache}
}

// RenderGetVideo fetches video details either from cache or from the wrapped
// use case. It returns the JSON encoded output and a quoted ETag string.
//
// The cache only ever holds public videos: a cached private record would
// bypass the per-caller access check, so those are rendered fresh every time.
func (r *httpRenderer) RenderGetVideo(ctx context.Context, getter videoSvc.Getter, caller model.Caller, id db.UUID) ([]byte, string, error) {
	raw, err := r.cache.GetVideoDetails(ctx, id)
	etag, errEtag := r.cache.GetEtagVideoDetails(ctx, id)
	if err == nil && errEtag == nil && raw != nil && etag != "" {
		return raw, etag, nil
	}

	out, err := getter.GetVideo(ctx, videoSvc.GetVideoInput{Caller: caller, ID: id})
	if err != nil {
		return nil, "", err
	}

	raw, err = json.Marshal(out)
	if err != nil {
		return nil, "", fmt.Errorf("json marshal: %w", err)
	}

	etag = fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))
	if out.Visibility == model.VisibilityPublic {
		r.cache.SetVideoDetails(ctx, id, raw, out.ValidUntil)
		r.cache.SetEtagVideoDetails(ctx, id, etag, out.ValidUntil)
	}

	return raw, etag, nil
}
