package dispatch

import (
	"context"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

// Transport is the external pub/sub the dispatcher hands committed events to.
// Delivery is best effort, at most once; the dispatcher keeps no retry state.
type Transport interface {
	Publish(ctx context.Context, channel string, eventName string, payload []byte) error
}

// Frame is the wire envelope published on a channel.
type Frame struct {
	Event   string
	Payload jsoniter.RawMessage
}

// RedisTransport publishes frames over redis pub/sub.
type RedisTransport struct {
	client *redis.Client
}

// NewRedisTransport returns a transport over client.
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

func (t *RedisTransport) Publish(ctx context.Context, channel string, eventName string, payload []byte) error {

	frame, err := jsoniter.Marshal(Frame{
		Event:   eventName,
		Payload: payload,
	})
	if err != nil {
		return err
	}

	return t.client.Publish(ctx, channel, frame).Err()
}
