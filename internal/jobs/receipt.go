// Package jobs holds the asynq tasks run by cmd/worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/media"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/receipt"
)

// TypeOrderReceipt archives the PDF ticket of a new order.
const TypeOrderReceipt = "order:receipt"

const (
	defaultQueue    = "default"
	defaultMaxRetry = 5
	receiptLockTTL  = 2 * time.Minute
)

// ReceiptPayload is the task body.
type ReceiptPayload struct {
	OrderID int64 `json:"order_id"`
}

// NewReceiptTask builds the task for orderID.
func NewReceiptTask(orderID int64) (*asynq.Task, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("jobs: invalid order id %d", orderID)
	}
	body, err := json.Marshal(ReceiptPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderReceipt, body), nil
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer is an events.Publisher that turns order.created events into
// receipt tasks. The task id is derived from the order, so an event
// delivered twice still produces a single task.
type Enqueuer struct {
	Client   TaskEnqueuer
	Queue    string
	MaxRetry int
	Logger   *zerolog.Logger
}

// Publish implements events.Publisher. Other topics are ignored.
func (e Enqueuer) Publish(ctx context.Context, ev events.Event) error {
	if ev.Topic != events.TopicOrderCreated {
		return nil
	}
	if e.Client == nil {
		return errors.New("jobs: task client not configured")
	}
	orderID, err := common.ParseID(ev.AggregateID)
	if err != nil {
		return fmt.Errorf("jobs: order id %q: %w", ev.AggregateID, err)
	}
	task, err := NewReceiptTask(orderID)
	if err != nil {
		return err
	}
	queue := e.Queue
	if queue == "" {
		queue = defaultQueue
	}
	retry := e.MaxRetry
	if retry <= 0 {
		retry = defaultMaxRetry
	}
	info, err := e.Client.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.MaxRetry(retry),
		asynq.TaskID(receiptTaskID(orderID)),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jobs: enqueue receipt %d: %w", orderID, err)
	}
	logger(e.Logger).Debug().Int64("order_id", orderID).Str("task_id", info.ID).Msg("receipt task enqueued")
	return nil
}

func receiptTaskID(orderID int64) string {
	return "receipt:" + strconv.FormatInt(orderID, 10)
}

// OrderSource loads an order for rendering.
type OrderSource interface {
	Get(ctx context.Context, id int64) (order.Order, error)
}

// Archive stores rendered receipts.
type Archive interface {
	Exists(bucket, name string) bool
	Put(bucket, name string, data []byte) (string, error)
}

// TryLocker runs fn only when the lock is free.
type TryLocker interface {
	TryOnce(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error)
}

// ReceiptArchiver renders the ticket PDF and stores it as
// receipts/<order id>.pdf. Already archived orders are skipped.
type ReceiptArchiver struct {
	Orders   OrderSource
	PDF      receipt.PDFRenderer
	Archive  Archive
	Locker   TryLocker
	Branding receipt.Branding
	Loc      *time.Location
	Logger   *zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (a ReceiptArchiver) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.OrderID <= 0 {
		obs.Inc(obs.ReceiptJobsTotal, "invalid")
		return fmt.Errorf("jobs: bad receipt payload: %v: %w", err, asynq.SkipRetry)
	}
	if a.Locker == nil {
		return a.archive(ctx, p.OrderID)
	}
	ran, err := a.Locker.TryOnce(ctx, lock.Key("receipt", strconv.FormatInt(p.OrderID, 10)), receiptLockTTL, func(ctx context.Context) error {
		return a.archive(ctx, p.OrderID)
	})
	if err != nil {
		return err
	}
	if !ran {
		obs.Inc(obs.ReceiptJobsTotal, "locked")
		logger(a.Logger).Debug().Int64("order_id", p.OrderID).Msg("receipt already being archived")
	}
	return nil
}

func (a ReceiptArchiver) archive(ctx context.Context, orderID int64) error {
	name := strconv.FormatInt(orderID, 10) + ".pdf"
	if a.Archive.Exists(media.BucketReceipts, name) {
		obs.Inc(obs.ReceiptJobsTotal, "exists")
		return nil
	}
	o, err := a.Orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			obs.Inc(obs.ReceiptJobsTotal, "missing")
			return fmt.Errorf("jobs: %w: %w", err, asynq.SkipRetry)
		}
		obs.Inc(obs.ReceiptJobsTotal, "error")
		return err
	}
	doc, err := receipt.Ticket(o, a.Branding, a.Loc)
	if err != nil {
		obs.Inc(obs.ReceiptJobsTotal, "error")
		return fmt.Errorf("jobs: %w: %w", err, asynq.SkipRetry)
	}
	start := time.Now()
	pdf, err := a.PDF.RenderPDF(ctx, doc, receipt.Paper80mm)
	obs.ObserveMillis(obs.ReceiptRenderLatency, obs.DurationMillis(time.Since(start)), "ticket")
	if err != nil {
		obs.Inc(obs.ReceiptJobsTotal, "error")
		return fmt.Errorf("jobs: render receipt %d: %w", orderID, err)
	}
	url, err := a.Archive.Put(media.BucketReceipts, name, pdf)
	if err != nil {
		obs.Inc(obs.ReceiptJobsTotal, "error")
		return err
	}
	obs.Inc(obs.ReceiptJobsTotal, "archived")
	logger(a.Logger).Info().Int64("order_id", orderID).Str("url", url).Msg("receipt archived")
	return nil
}

// NewServeMux routes worker tasks to their handlers.
func NewServeMux(archiver ReceiptArchiver) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeOrderReceipt, archiver)
	return mux
}

func logger(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
