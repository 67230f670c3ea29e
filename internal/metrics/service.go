package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
)

// Querier defines the database access required for the dashboard.
type Querier interface {
	GetDashboardMetrics(ctx context.Context, arg dbgen.GetDashboardMetricsParams) ([]byte, error)
	ListOrdersInRange(ctx context.Context, arg dbgen.ListOrdersInRangeParams) ([]dbgen.Order, error)
	ListRecentOrdersInRange(ctx context.Context, arg dbgen.ListRecentOrdersInRangeParams) ([]dbgen.Order, error)
	ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]dbgen.OrderItem, error)
}

// Service computes dashboards with a Redis cache in front.
type Service struct {
	Q        Querier
	R        *redis.Client
	TTL      time.Duration
	Loc      *time.Location
	Epoch    time.Time
	Now      func() time.Time
	Logger   *zerolog.Logger
	RowsOnly bool
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) loc() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Dashboard resolves filter and returns the aggregated metrics. The
// server-side function is tried first; raw rows are aggregated when it fails.
func (s *Service) Dashboard(ctx context.Context, filter string) (Dashboard, error) {
	if s == nil || s.Q == nil {
		return Dashboard{}, fmt.Errorf("metrics service not configured")
	}
	rng := ResolveRange(filter, s.now(), s.loc(), s.Epoch)
	key := cacheKey("metrics", "dashboard", rng.Filter, rng.Start.Format("2006-01-02"))
	if d, ok := s.fromCache(ctx, key); ok {
		obs.Inc(obs.DashboardQueriesTotal, "cache")
		return d, nil
	}

	var (
		d   Dashboard
		err error
	)
	if !s.RowsOnly {
		d, err = s.viaSQL(ctx, rng)
		if err == nil {
			obs.Inc(obs.DashboardQueriesTotal, "sql")
		} else if s.Logger != nil {
			s.Logger.Warn().Err(err).Str("filter", rng.Filter).Msg("dashboard_sql_fallback")
		}
	}
	if s.RowsOnly || err != nil {
		d, err = s.viaRows(ctx, rng)
		if err != nil {
			return Dashboard{}, err
		}
		obs.Inc(obs.DashboardQueriesTotal, "fallback")
	}
	d.Range = rng
	s.store(ctx, key, d)
	return d, nil
}

type sqlProduct struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type sqlDashboard struct {
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	TotalOrders   int               `json:"total_orders"`
	DeliveryCount int               `json:"delivery_count"`
	PickupCount   int               `json:"pickup_count"`
	CashTotal     decimal.Decimal   `json:"cash_total"`
	MPTotal       decimal.Decimal   `json:"mp_total"`
	HourlySales   []decimal.Decimal `json:"hourly_sales"`
	TopProducts   []sqlProduct      `json:"top_products"`
}

func (s *Service) viaSQL(ctx context.Context, rng Range) (Dashboard, error) {
	raw, err := s.Q.GetDashboardMetrics(ctx, dbgen.GetDashboardMetricsParams{
		Start: timestamptz(rng.Start),
		End:   timestamptz(rng.End),
		TZ:    s.loc().String(),
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard function: %w", err)
	}
	var agg sqlDashboard
	if err := json.Unmarshal(raw, &agg); err != nil {
		return Dashboard{}, fmt.Errorf("decode dashboard: %w", err)
	}
	if len(agg.HourlySales) != 24 {
		return Dashboard{}, fmt.Errorf("decode dashboard: %d hourly buckets", len(agg.HourlySales))
	}
	t := tally{
		revenue:  agg.TotalRevenue,
		orders:   agg.TotalOrders,
		delivery: agg.DeliveryCount,
		pickup:   agg.PickupCount,
		cash:     agg.CashTotal,
		mp:       agg.MPTotal,
		products: make([]ProductCount, 0, len(agg.TopProducts)),
	}
	copy(t.hourly[:], agg.HourlySales)
	for _, p := range agg.TopProducts {
		t.products = append(t.products, ProductCount(p))
	}
	rows, err := s.Q.ListRecentOrdersInRange(ctx, dbgen.ListRecentOrdersInRangeParams{
		Start: timestamptz(rng.Start),
		End:   timestamptz(rng.End),
		Limit: recentOrdersLimit,
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("recent orders: %w", err)
	}
	recent, err := s.attach(ctx, rows)
	if err != nil {
		return Dashboard{}, err
	}
	return t.dashboard(recent), nil
}

func (s *Service) viaRows(ctx context.Context, rng Range) (Dashboard, error) {
	rows, err := s.Q.ListOrdersInRange(ctx, dbgen.ListOrdersInRangeParams{
		Start: timestamptz(rng.Start),
		End:   timestamptz(rng.End),
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("orders in range: %w", err)
	}
	orders, err := s.attach(ctx, rows)
	if err != nil {
		return Dashboard{}, err
	}
	return Aggregate(orders, s.loc()), nil
}

func (s *Service) attach(ctx context.Context, rows []dbgen.Order) ([]order.Order, error) {
	if len(rows) == 0 {
		return []order.Order{}, nil
	}
	items, err := s.Q.ListOrderItemsByOrderIDs(ctx, order.IDs(rows))
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	return order.Attach(rows, items), nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Dashboard, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Dashboard{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Dashboard{}, false
	}
	var d Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return Dashboard{}, false
	}
	return d, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
