package messaging

import "context"

// Broker is the pub/sub transport carrying domain events between the API
// process and background workers.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
