package mock

import (
	"context"
	"sync"

	"github.com/vidmill/videos-ms-go/internal/broadcast"
)

// PublishedEvent pairs a topic with the event sent on it.
type PublishedEvent struct {
	Topic string
	Event broadcast.Event
}

// Broadcaster records every published event and feeds subscribers from an
// internal channel.
type Broadcaster struct {
	mu        sync.Mutex
	published []PublishedEvent

	PublishErr   error
	SubscribeErr error
}

func (m *Broadcaster) Publish(ctx context.Context, topic string, ev broadcast.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedEvent{Topic: topic, Event: ev})
	return m.PublishErr
}

func (m *Broadcaster) Subscribe(ctx context.Context, topic string) (broadcast.Subscriber, error) {
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	return &BroadcastSubscriber{Ch: make(chan broadcast.Event, 16)}, nil
}

// Published returns a copy of all recorded events in publication order.
func (m *Broadcaster) Published() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.published...)
}

// OnTopic returns the events published on one topic, in order.
func (m *Broadcaster) OnTopic(topic string) []broadcast.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []broadcast.Event
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p.Event)
		}
	}
	return out
}

// BroadcastSubscriber is a channel-backed subscriber handle for tests.
type BroadcastSubscriber struct {
	Ch       chan broadcast.Event
	CloseErr error

	once   sync.Once
	Closed bool
}

func (s *BroadcastSubscriber) C() <-chan broadcast.Event {
	return s.Ch
}

func (s *BroadcastSubscriber) Close() error {
	s.once.Do(func() {
		s.Closed = true
		close(s.Ch)
	})
	return s.CloseErr
}
