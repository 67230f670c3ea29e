package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/events"
)

type capture struct {
	events []events.Event
	err    error
}

func (c *capture) Publish(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestEmitFansOutAndJoinsErrors(t *testing.T) {
	ok := &capture{}
	failing := &capture{err: errors.New("queue down")}
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	bus := &events.Bus{Publishers: []events.Publisher{failing, ok}, Now: func() time.Time { return fixed }}

	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, "42", map[string]any{"id": 42})
	require.ErrorContains(t, err, "queue down")
	require.Len(t, ok.events, 1, "a failing publisher does not stop the others")
	require.Equal(t, ev, ok.events[0])
	require.Equal(t, fixed, ev.OccurredAt)
	require.JSONEq(t, `{"id":42}`, string(ev.Payload))
}

func TestEmitValidatesInput(t *testing.T) {
	bus := &events.Bus{}
	_, err := bus.Emit(context.Background(), " ", "1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "1", []byte("{not json"))
	require.Error(t, err)

	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, "1", nil)
	require.NoError(t, err)
	require.Equal(t, json.RawMessage("{}"), ev.Payload)
}

func TestLocalBrokerFiltersAndCloses(t *testing.T) {
	broker := events.NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := broker.Subscribe(ctx, events.TopicOrderCreated)
	require.NoError(t, err)

	bus := &events.Bus{Publishers: []events.Publisher{broker}}
	_, err = bus.Emit(context.Background(), events.TopicOrderStatusChanged, "1", nil)
	require.NoError(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "2", nil)
	require.NoError(t, err)

	select {
	case ev := <-ch:
		require.Equal(t, "2", ev.AggregateID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestRedisPubSubRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ps := &events.RedisPubSub{R: client}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := ps.Subscribe(ctx, events.TopicOrderCreated)
	require.NoError(t, err)

	bus := &events.Bus{Publishers: []events.Publisher{ps}}
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "7", map[string]int{"id": 7})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		require.Equal(t, events.TopicOrderCreated, ev.Topic)
		require.JSONEq(t, `{"id":7}`, string(ev.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
