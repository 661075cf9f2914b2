package mock

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/castellic/rednet/transport"
)

// Bus is an in-memory pub/sub used by tests and offline simulations.
// Duplicate and Drop simulate the at-least-once, lossy nature of the
// real transport.
type Bus struct {
	mu        sync.Mutex
	subs      map[string][]*busSub
	closed    bool
	Duplicate float64 // probability a publish is delivered twice
	Drop      float64 // probability a publish is not delivered
}

func NewBus() *Bus {
	return &Bus{subs: map[string][]*busSub{}}
}

func (b *Bus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, sub := range b.subs[channel] {
		copies := 1
		if b.Drop > 0 && rand.Float64() < b.Drop {
			copies = 0
		} else if b.Duplicate > 0 && rand.Float64() < b.Duplicate {
			copies = 2
		}
		for range copies {
			msg := make([]byte, len(payload))
			copy(msg, payload)
			select {
			case sub.out <- msg:
			default:
				// subscriber too slow, message lost
			}
		}
	}
	return nil
}

func (b *Bus) Subscribe(_ context.Context, channel string) (transport.Sub, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &busSub{bus: b, channel: channel, out: make(chan []byte, 1024)}
	b.subs[channel] = append(b.subs[channel], sub)
	return sub, nil
}

// Close closes every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.once.Do(func() { close(sub.out) })
		}
	}
	b.subs = map[string][]*busSub{}
}

type busSub struct {
	bus     *Bus
	channel string
	out     chan []byte
	once    sync.Once
}

func (s *busSub) Messages() <-chan []byte {
	return s.out
}

func (s *busSub) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if s.bus.closed {
		return nil
	}
	subs := s.bus.subs[s.channel]
	for i, sub := range subs {
		if sub == s {
			s.bus.subs[s.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.once.Do(func() { close(s.out) })
	return nil
}
