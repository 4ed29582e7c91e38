package broadcast

import (
	"context"

	"github.com/vidmill/videos-ms-go/internal/model"
)

// TopicProcessingUpdates is the global topic carrying every processing event.
const TopicProcessingUpdates = "video_processing_update"

// VideoTopic returns the per-video topic name.
func VideoTopic(id string) string {
	return "video:" + id
}

// Event is the payload published by the processing state machine.
type Event struct {
	VideoID     string             `json:"video_id"`
	Progress    int                `json:"progress"`
	Status      model.VideoStatus  `json:"status"`
	Message     string             `json:"message,omitempty"`
	Sensitivity *model.Sensitivity `json:"sensitivity,omitempty"`
}

// Subscriber is a handle on a single topic subscription.
type Subscriber interface {
	// C yields events in publication order. It is closed by Close.
	C() <-chan Event
	Close() error
}

// Broadcaster is the pub/sub channel between the processing state machine
// and connected observers. Delivery is best-effort: no durability, no replay.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}
