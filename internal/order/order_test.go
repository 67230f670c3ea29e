package order

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/money"
)

type stubOrders struct {
	dbgen.Querier
	mu        sync.Mutex
	orders    map[int64]dbgen.Order
	items     []dbgen.OrderItem
	failWrite error
}

func newStub() *stubOrders {
	base := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)
	s := &stubOrders{orders: map[int64]dbgen.Order{}}
	for i, st := range []string{StatusPending, StatusCooking, StatusCancelled, StatusPending} {
		id := int64(i + 1)
		s.orders[id] = dbgen.Order{
			ID: id, CustomerName: "Cliente " + strconv.Itoa(i+1), Status: st,
			Total:     money.ToNumeric(decimal.NewFromInt(1000 * id)),
			Discount:  money.ToNumeric(decimal.Zero),
			CreatedAt: pgtype.Timestamptz{Time: base.Add(time.Duration(i) * time.Minute), Valid: true},
		}
		s.items = append(s.items, dbgen.OrderItem{ID: id * 10, OrderID: id, ProductName: "Doble", Quantity: 2, Price: money.ToNumeric(decimal.NewFromInt(500)), Options: "Bacon, Cheddar"})
	}
	return s
}

func (s *stubOrders) sorted(status string) []dbgen.Order {
	out := []dbgen.Order{}
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time) })
	return out
}

func (s *stubOrders) ListOrders(_ context.Context, arg dbgen.ListOrdersParams) ([]dbgen.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(arg.Status)
	start := int(arg.Offset)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(arg.Limit)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *stubOrders) CountOrders(_ context.Context, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sorted(status))), nil
}

func (s *stubOrders) GetOrder(_ context.Context, id int64) (dbgen.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *stubOrders) ListOrderItemsByOrderIDs(_ context.Context, ids []int64) ([]dbgen.OrderItem, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []dbgen.OrderItem{}
	for _, it := range s.items {
		if want[it.OrderID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubOrders) UpdateOrderStatus(_ context.Context, arg dbgen.UpdateOrderStatusParams) (dbgen.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return dbgen.Order{}, s.failWrite
	}
	o, ok := s.orders[arg.ID]
	if !ok {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	s.orders[arg.ID] = o
	return o, nil
}

func TestListAndGet(t *testing.T) {
	svc := &Service{Q: newStub()}
	page, err := svc.List(context.Background(), "", 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(4), page.Total)
	require.Len(t, page.Orders, 2)
	require.Equal(t, int64(4), page.Orders[0].ID, "newest first")
	require.Len(t, page.Orders[0].Items, 1)

	o, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "1000", o.Subtotal().String())
	require.Equal(t, []string{"Bacon", "Cheddar"}, o.Items[0].Extras())

	_, err = svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.List(context.Background(), "shipped", 10, 0)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusEmits(t *testing.T) {
	broker := events.NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := broker.Subscribe(ctx)
	require.NoError(t, err)

	svc := &Service{Q: newStub(), Events: &events.Bus{Publishers: []events.Publisher{broker}}}
	o, err := svc.UpdateStatus(context.Background(), 1, StatusDelivery)
	require.NoError(t, err)
	require.Equal(t, StatusDelivery, o.Status)

	ev := <-ch
	require.Equal(t, events.TopicOrderStatusChanged, ev.Topic)
	require.JSONEq(t, `{"id":1,"status":"delivery"}`, string(ev.Payload))

	_, err = svc.UpdateStatus(context.Background(), 1, "shipped")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBoardMoveConfirm(t *testing.T) {
	stub := newStub()
	svc := &Service{Q: stub}
	b := NewBoard(svc, svc)
	require.NoError(t, b.Sync(context.Background()))

	cols := b.Columns()
	require.Len(t, cols, 4)
	require.Equal(t, StatusPending, cols[0].Status)
	require.Len(t, cols[0].Orders, 2)
	require.Len(t, cols[1].Orders, 1)

	move, err := b.Move(1, StatusCooking)
	require.NoError(t, err)
	st, _ := b.StatusOf(1)
	require.Equal(t, StatusCooking, st, "applied locally before confirm")
	require.Equal(t, StatusPending, stub.orders[1].Status)

	require.NoError(t, move.Confirm(context.Background()))
	require.Equal(t, StatusCooking, stub.orders[1].Status)

	_, err = b.Move(42, StatusCooking)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBoardRevertsOnFailedWrite(t *testing.T) {
	stub := newStub()
	svc := &Service{Q: stub}
	b := NewBoard(svc, svc)
	require.NoError(t, b.Sync(context.Background()))

	move, err := b.Move(4, StatusCompleted)
	require.NoError(t, err)
	stub.failWrite = errors.New("connection reset")

	err = move.Confirm(context.Background())
	require.ErrorContains(t, err, "connection reset")
	st, ok := b.StatusOf(4)
	require.True(t, ok)
	require.Equal(t, StatusPending, st, "board re-synced from source")
	require.Equal(t, err, move.Confirm(context.Background()))
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateStatusHandler(t *testing.T) {
	h := &AdminHandler{Svc: &Service{Q: newStub()}}

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, withID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"completed"}`)), "2"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"completed"`)

	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, withID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"shipped"}`)), "2"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, withID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"cooking"}`)), "77"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Board(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), `"status":"cancelled"`)
}

func TestStreamWritesEvents(t *testing.T) {
	broker := events.NewLocalBroker()
	srv := httptest.NewServer(&Stream{Events: broker, Heartbeat: time.Hour})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	bus := &events.Bus{Publishers: []events.Publisher{broker}}
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "5", map[string]int{"id": 5})
	require.NoError(t, err)

	var got []string
	for len(got) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) != "" {
			got = append(got, strings.TrimSpace(line))
		}
	}
	require.True(t, strings.HasPrefix(got[0], "id: "))
	require.Equal(t, "event: order.created", got[1])
	require.Equal(t, `data: {"id":5}`, got[2])
}
