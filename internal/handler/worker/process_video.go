package worker

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/task"
)

// Runner executes one processing run to completion.
type Runner interface {
	Run(ctx context.Context, id db.UUID) error
}

// ProcessVideoHandler handles a process-video task. It converts the incoming
// task payload to a video ID and drives the state machine over it.
func ProcessVideoHandler(ctx context.Context, p task.ProcessVideoPayload, proc Runner) error {
	id, err := uuid.Parse(p.VideoID)
	if err != nil {
		log.Printf("❌  Invalid video ID %q: %v", p.VideoID, err)
		return err
	}

	if err := proc.Run(ctx, db.UUID(id)); err != nil {
		log.Printf("❌  Failed to process video #%s: %v", id, err)
		return err
	}

	log.Printf("✅  Successfully processed video #%s", id)
	return nil
}
