package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the pub/sub channel shared by API replicas.
const DefaultChannel = "events:orders"

// RedisPubSub publishes events on a Redis channel and subscribes to it, so
// every API replica sees events emitted by any other.
type RedisPubSub struct {
	R       *redis.Client
	Channel string
	Logger  *zerolog.Logger
}

func (p *RedisPubSub) channel() string {
	if p.Channel == "" {
		return DefaultChannel
	}
	return p.Channel
}

// Publish implements Publisher.
func (p *RedisPubSub) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.R.Publish(ctx, p.channel(), raw).Err()
}

// Subscribe implements Subscriber.
func (p *RedisPubSub) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	sub := p.R.Subscribe(ctx, p.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("events: subscribe: %w", err)
	}
	out := make(chan Event, localBuffer)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					if p.Logger != nil {
						p.Logger.Warn().Err(err).Msg("event_decode_failed")
					}
					continue
				}
				if !matches(topics, ev.Topic) {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
