package processing

import (
	"github.com/vidmill/videos-ms-go/internal/db"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// NoopCanceller stands in when runs execute in a separate worker process.
// There is nothing to cancel locally; the worker's guarded updates stop the
// run once the record is gone.
type NoopCanceller struct{}

var _ videoSvc.Canceller = (*NoopCanceller)(nil)

func NewNoopCanceller() *NoopCanceller { return &NoopCanceller{} }

func (c *NoopCanceller) Cancel(id db.UUID) {}
