package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order: not found")
	// ErrInvalidStatus is returned for statuses outside the board.
	ErrInvalidStatus = errors.New("order: invalid status")
)

const defaultBoardLimit = 200

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Service reads and updates orders for the back office.
type Service struct {
	Q      dbgen.Querier
	Events Emitter
	Logger *zerolog.Logger
}

// Page is a slice of orders plus the unpaged count.
type Page struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
}

// List returns orders newest first with their items. An empty status lists all.
func (s *Service) List(ctx context.Context, status string, limit, offset int) (Page, error) {
	if status != "" && !ValidStatus(status) {
		return Page{}, ErrInvalidStatus
	}
	rows, err := s.Q.ListOrders(ctx, dbgen.ListOrdersParams{Status: status, Limit: int32(limit), Offset: int32(offset)})
	if err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.Q.CountOrders(ctx, status)
	if err != nil {
		return Page{}, fmt.Errorf("count orders: %w", err)
	}
	orders, err := s.withItems(ctx, rows)
	if err != nil {
		return Page{}, err
	}
	return Page{Orders: orders, Total: total}, nil
}

// Get loads one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	row, err := s.Q.GetOrder(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return Order{}, err
	}
	items, err := s.Q.ListOrderItemsByOrderIDs(ctx, []int64{id})
	if err != nil {
		return Order{}, fmt.Errorf("order items: %w", err)
	}
	return FromRow(row, items), nil
}

// Active returns the orders shown on the board: everything not cancelled,
// newest first, capped at limit.
func (s *Service) Active(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = defaultBoardLimit
	}
	rows, err := s.Q.ListOrders(ctx, dbgen.ListOrdersParams{Limit: int32(limit)})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	kept := rows[:0]
	for _, r := range rows {
		if r.Status != StatusCancelled {
			kept = append(kept, r)
		}
	}
	return s.withItems(ctx, kept)
}

// UpdateStatus writes status unconditionally; the last writer wins.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (Order, error) {
	if !ValidStatus(status) {
		return Order{}, ErrInvalidStatus
	}
	row, err := s.Q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ID: id, Status: status})
	if err != nil {
		if db.IsNotFound(err) {
			return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	obs.Inc(obs.OrderStatusChangesTotal, status)
	o := FromRow(row, nil)
	if s.Events != nil {
		payload := map[string]any{"id": id, "status": status}
		if _, err := s.Events.Emit(ctx, events.TopicOrderStatusChanged, strconv.FormatInt(id, 10), payload); err != nil {
			s.logger().Warn().Err(err).Int64("order_id", id).Msg("order_status_event_failed")
		}
	}
	return o, nil
}

func (s *Service) withItems(ctx context.Context, rows []dbgen.Order) ([]Order, error) {
	if len(rows) == 0 {
		return []Order{}, nil
	}
	items, err := s.Q.ListOrderItemsByOrderIDs(ctx, IDs(rows))
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	return Attach(rows, items), nil
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := zerolog.Nop()
	return &l
}
