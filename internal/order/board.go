package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Source loads the authoritative set of board orders.
type Source interface {
	Active(ctx context.Context, limit int) ([]Order, error)
}

// StatusWriter persists a status change.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, status string) (Order, error)
}

// Column is one kanban lane.
type Column struct {
	Status string  `json:"status"`
	Orders []Order `json:"orders"`
}

// Board is the kanban model. A move is applied locally first and only
// written when its PendingMove is confirmed; a failed write re-syncs the
// board from Source.
type Board struct {
	Source Source
	Writer StatusWriter
	Limit  int

	mu     sync.Mutex
	orders []Order
}

// NewBoard builds an empty board; call Sync to load it.
func NewBoard(src Source, w StatusWriter) *Board {
	return &Board{Source: src, Writer: w}
}

// Sync replaces local state with the authoritative orders.
func (b *Board) Sync(ctx context.Context) error {
	orders, err := b.Source.Active(ctx, b.Limit)
	if err != nil {
		return fmt.Errorf("board sync: %w", err)
	}
	b.mu.Lock()
	b.orders = orders
	b.mu.Unlock()
	return nil
}

// Columns groups orders by status in BoardColumns order. Cancelled and
// unknown statuses are not shown.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	cols := make([]Column, 0, len(BoardColumns))
	for _, status := range BoardColumns {
		col := Column{Status: status, Orders: []Order{}}
		for _, o := range b.orders {
			if o.Status == status {
				col.Orders = append(col.Orders, o)
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// StatusOf reports the local status of an order.
func (b *Board) StatusOf(id int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.ID == id {
			return o.Status, true
		}
	}
	return "", false
}

// PendingMove is a locally applied move awaiting its backend write.
type PendingMove struct {
	ID   int64
	From string
	To   string

	board *Board
	once  sync.Once
	err   error
}

// Move applies the status change locally.
func (b *Board) Move(id int64, to string) (*PendingMove, error) {
	if !ValidStatus(to) {
		return nil, ErrInvalidStatus
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == id {
			from := b.orders[i].Status
			b.orders[i].Status = to
			return &PendingMove{ID: id, From: from, To: to, board: b}, nil
		}
	}
	return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
}

// Confirm writes the move. On failure the board is re-synced and the
// write error returned, joined with any sync error. Repeated calls
// return the first result.
func (m *PendingMove) Confirm(ctx context.Context) error {
	m.once.Do(func() {
		if m.From == m.To {
			return
		}
		if _, err := m.board.Writer.UpdateStatus(ctx, m.ID, m.To); err != nil {
			m.err = err
			if syncErr := m.board.Sync(ctx); syncErr != nil {
				m.err = errors.Join(err, syncErr)
			}
		}
	})
	return m.err
}
