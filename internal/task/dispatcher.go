package task

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/vidmill/videos-ms-go/internal/db"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// Dispatcher enqueues processing runs on Redis for the worker binary to pick
// up.
type Dispatcher struct {
	client *asynq.Client
}

// compile-time check
var _ videoSvc.Launcher = (*Dispatcher)(nil)

func NewDispatcher(addr, password string) *Dispatcher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Dispatcher{client: c}
}

func (d *Dispatcher) LaunchProcessing(ctx context.Context, id db.UUID) error {
	t, err := NewProcessVideoTask(id.String())
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, t); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}
