package events

import (
	"context"
	"sync"
)

const localBuffer = 32

// LocalBroker is an in-process Publisher and Subscriber. Slow subscribers
// miss events rather than block the publisher.
type LocalBroker struct {
	mu   sync.Mutex
	subs map[chan Event][]string
}

// NewLocalBroker returns an empty broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[chan Event][]string)}
}

// Publish implements Publisher.
func (b *LocalBroker) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch, topics := range b.subs {
		if !matches(topics, ev.Topic) {
			continue
		}
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe implements Subscriber.
func (b *LocalBroker) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	ch := make(chan Event, localBuffer)
	b.mu.Lock()
	b.subs[ch] = topics
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
