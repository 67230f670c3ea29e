package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/media"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/receipt"
)

type fakeClient struct {
	tasks []*asynq.Task
	ids   map[string]bool
}

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.ids == nil {
		f.ids = map[string]bool{}
	}
	var id string
	for _, o := range opts {
		if o.Type() == asynq.TaskIDOpt {
			id = o.Value().(string)
		}
	}
	if f.ids[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	f.ids[id] = true
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: id}, nil
}

func TestEnqueuerDedupesByOrder(t *testing.T) {
	client := &fakeClient{}
	e := Enqueuer{Client: client}
	ev := events.Event{Topic: events.TopicOrderCreated, AggregateID: "42"}

	require.NoError(t, e.Publish(context.Background(), ev))
	require.NoError(t, e.Publish(context.Background(), ev))
	require.Len(t, client.tasks, 1)
	require.Equal(t, TypeOrderReceipt, client.tasks[0].Type())

	var p ReceiptPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &p))
	require.Equal(t, int64(42), p.OrderID)

	require.NoError(t, e.Publish(context.Background(), events.Event{Topic: events.TopicOrderStatusChanged, AggregateID: "42"}))
	require.Len(t, client.tasks, 1)

	require.Error(t, e.Publish(context.Background(), events.Event{Topic: events.TopicOrderCreated, AggregateID: "abc"}))
}

type fakeOrders map[int64]order.Order

func (f fakeOrders) Get(_ context.Context, id int64) (order.Order, error) {
	o, ok := f[id]
	if !ok {
		return order.Order{}, fmt.Errorf("order %d: %w", id, order.ErrNotFound)
	}
	return o, nil
}

type countingPDF struct{ calls int }

func (c *countingPDF) RenderPDF(context.Context, []byte, receipt.Paper) ([]byte, error) {
	c.calls++
	return []byte("%PDF-1.4"), nil
}

func newArchiver(t *testing.T) (ReceiptArchiver, *countingPDF, media.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := media.Store{Dir: t.TempDir(), BaseURL: "/media"}
	pdf := &countingPDF{}
	return ReceiptArchiver{
		Orders: fakeOrders{7: {
			ID:             7,
			CustomerName:   "Juan",
			DeliveryMethod: "pickup",
			Total:          decimal.NewFromInt(5000),
			CreatedAt:      time.Now(),
			Items:          []order.Item{{ProductName: "Clásica", Quantity: 1, Price: decimal.NewFromInt(5000)}},
		}},
		PDF:     pdf,
		Archive: store,
		Locker:  lock.Locker{R: client},
	}, pdf, store
}

func TestReceiptArchiverStoresOnce(t *testing.T) {
	a, pdf, store := newArchiver(t)
	task, err := NewReceiptTask(7)
	require.NoError(t, err)

	require.NoError(t, a.ProcessTask(context.Background(), task))
	require.True(t, store.Exists(media.BucketReceipts, "7.pdf"))
	require.NoError(t, a.ProcessTask(context.Background(), task))
	require.Equal(t, 1, pdf.calls)
}

func TestReceiptArchiverSkipsRetryForMissingOrders(t *testing.T) {
	a, _, _ := newArchiver(t)
	task, err := NewReceiptTask(99)
	require.NoError(t, err)
	err = a.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, order.ErrNotFound)

	err = a.ProcessTask(context.Background(), asynq.NewTask(TypeOrderReceipt, []byte("{")))
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewReceiptTaskValidates(t *testing.T) {
	_, err := NewReceiptTask(0)
	require.Error(t, err)
}
