package transport

import "context"

// Bus is the pub/sub channel abstraction every node talks through.
// Delivery is at-least-once and unordered across channels; the protocol
// layer is expected to tolerate duplicates and reordering.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Sub, error)
}

// Sub is a single-channel subscription. Messages is closed when the
// subscription is closed or its context ends.
type Sub interface {
	Messages() <-chan []byte
	Close() error
}
