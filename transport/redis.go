package transport

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over Redis pub/sub, matching the deployment
// the simulated network runs on.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(addr, password string, db int) *RedisBus {
	return &RedisBus{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (Sub, error) {
	ps := b.client.Subscribe(ctx, channel)
	// force the subscription onto the wire before we return
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	sub := &redisSub{ps: ps, out: make(chan []byte, 64)}
	go sub.pump(ctx)
	return sub, nil
}

// Ping verifies the server is reachable. Used by the run preflight.
func (b *RedisBus) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSub struct {
	ps  *redis.PubSub
	out chan []byte
}

func (s *redisSub) pump(ctx context.Context) {
	defer close(s.out)
	in := s.ps.Channel()
	for {
		select {
		case m, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.out <- []byte(m.Payload):
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *redisSub) Messages() <-chan []byte {
	return s.out
}

func (s *redisSub) Close() error {
	return s.ps.Close()
}
