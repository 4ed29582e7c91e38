package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster carries processing events over Redis Pub/Sub so the API
// and the worker can run as separate processes.
type RedisBroadcaster struct {
	client *redis.Client
}

// compile-time check: *RedisBroadcaster must satisfy Broadcaster
var _ Broadcaster = (*RedisBroadcaster)(nil)

func NewRedisBroadcaster(addr, password string) *RedisBroadcaster {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &RedisBroadcaster{client: rdb}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish on %q failed: %w", topic, err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	ps := b.client.Subscribe(ctx, topic)
	// force the SUBSCRIBE round-trip so a dead Redis fails here, not on first receive
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe on %q failed: %w", topic, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("skipping malformed event on topic %q: %v", topic, err)
				continue
			}
			select {
			case out <- ev:
			default:
				log.Printf("dropping event on topic %q: subscriber too slow", topic)
			}
		}
	}()

	return &redisSub{ps: ps, ch: out}, nil
}

// Close releases the underlying Redis connection.
func (b *RedisBroadcaster) Close() error {
	return b.client.Close()
}

type redisSub struct {
	ps *redis.PubSub
	ch chan Event
}

func (s *redisSub) C() <-chan Event {
	return s.ch
}

func (s *redisSub) Close() error {
	return s.ps.Close()
}
