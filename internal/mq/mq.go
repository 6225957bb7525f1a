package mq

import "context"

// Publisher emits entity lifecycle events to a named broker channel.
// This service only ever publishes; consumers live elsewhere.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}
