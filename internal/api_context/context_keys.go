package api_context

import (
	"context"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

type ctxKey string

const (
	IDKey     ctxKey = "video_id"
	CallerKey ctxKey = "caller"
)

func IDFromContext(ctx context.Context) (db.UUID, bool) {
	id, ok := ctx.Value(IDKey).(db.UUID)
	return id, ok
}

func WithID(ctx context.Context, id db.UUID) context.Context {
	return context.WithValue(ctx, IDKey, id)
}

func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(CallerKey).(model.Caller)
	return c, ok
}

func WithCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, c)
}
