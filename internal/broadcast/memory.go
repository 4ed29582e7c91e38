package broadcast

import (
	"context"
	"log"
	"sync"
)

const subscriberBuffer = 64

// MemoryBroadcaster is an in-process pub/sub used when the state machine runs
// inside the API binary. Events for one topic reach each subscriber in
// publication order; a subscriber that cannot keep up loses events rather
// than blocking the publisher.
type MemoryBroadcaster struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

// compile-time check: *MemoryBroadcaster must satisfy Broadcaster
var _ Broadcaster = (*MemoryBroadcaster)(nil)

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[string][]chan Event)}
}

func (b *MemoryBroadcaster) Publish(ctx context.Context, topic string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// sends happen under the read lock: Close holds the write lock while it
	// closes the channel, so a send can never hit a closed channel. The
	// non-blocking send keeps the hold time bounded.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
			log.Printf("dropping event on topic %q: subscriber too slow", topic)
		}
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	return &memSub{b: b, topic: topic, ch: ch}, nil
}

type memSub struct {
	b     *MemoryBroadcaster
	topic string
	ch    chan Event
	once  sync.Once
}

func (s *memSub) C() <-chan Event {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		close(s.ch)
	})
	return nil
}
