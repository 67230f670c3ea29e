// Package metrics computes the admin dashboard from orders in a date range.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/order"
)

const (
	topProductsLimit  = 6
	recentOrdersLimit = 20
	unknownProduct    = "Desconocido"
	noPeakLabel       = "-"
)

// KPI holds the headline figures.
type KPI struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	AvgTicket     decimal.Decimal `json:"avg_ticket"`
	DeliveryCount int             `json:"delivery_count"`
	PickupCount   int             `json:"pickup_count"`
	CashTotal     decimal.Decimal `json:"cash_total"`
	MPTotal       decimal.Decimal `json:"mp_total"`
}

// HourBucket is the revenue for one local hour of day.
type HourBucket struct {
	Hour  string          `json:"hour"`
	Total decimal.Decimal `json:"total"`
}

// ProductCount is a top product entry.
type ProductCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Slice is a labelled breakdown value.
type Slice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Dashboard is the full metrics payload.
type Dashboard struct {
	Range             Range          `json:"range"`
	KPI               KPI            `json:"kpi"`
	HourlySales       []HourBucket   `json:"hourly_sales"`
	TopProducts       []ProductCount `json:"top_products"`
	PeakHour          HourBucket     `json:"peak_hour"`
	DeliveryRate      int64          `json:"delivery_rate"`
	CashPct           int64          `json:"cash_pct"`
	MPPct             int64          `json:"mp_pct"`
	RecentOrders      []order.Order  `json:"recent_orders"`
	PaymentBreakdown  []Slice        `json:"payment_breakdown"`
	DeliveryBreakdown []Slice        `json:"delivery_breakdown"`
}

// tally is the raw aggregate both computation paths produce.
type tally struct {
	revenue  decimal.Decimal
	orders   int
	delivery int
	pickup   int
	cash     decimal.Decimal
	mp       decimal.Decimal
	hourly   [24]decimal.Decimal
	products []ProductCount
}

// Aggregate computes the dashboard over orders in one pass. Orders are
// expected newest first; cancelled ones are skipped.
func Aggregate(orders []order.Order, loc *time.Location) Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	t := tally{}
	index := map[string]int{}
	recent := make([]order.Order, 0, recentOrdersLimit)
	for _, o := range orders {
		if o.Status == order.StatusCancelled {
			continue
		}
		t.orders++
		t.revenue = t.revenue.Add(o.Total)
		if o.DeliveryMethod == "delivery" {
			t.delivery++
		} else {
			t.pickup++
		}
		if strings.EqualFold(o.PaymentMethod, "mercadopago") {
			t.mp = t.mp.Add(o.Total)
		} else {
			t.cash = t.cash.Add(o.Total)
		}
		h := o.CreatedAt.In(loc).Hour()
		t.hourly[h] = t.hourly[h].Add(o.Total)
		for _, it := range o.Items {
			name := it.ProductName
			if name == "" {
				name = unknownProduct
			}
			qty := it.Quantity
			if qty == 0 {
				qty = 1
			}
			if i, ok := index[name]; ok {
				t.products[i].Quantity += qty
				continue
			}
			index[name] = len(t.products)
			t.products = append(t.products, ProductCount{Name: name, Quantity: qty})
		}
		if len(recent) < recentOrdersLimit {
			recent = append(recent, o)
		}
	}
	sort.SliceStable(t.products, func(i, j int) bool {
		return t.products[i].Quantity > t.products[j].Quantity
	})
	if len(t.products) > topProductsLimit {
		t.products = t.products[:topProductsLimit]
	}
	return t.dashboard(recent)
}

func (t tally) dashboard(recent []order.Order) Dashboard {
	d := Dashboard{
		KPI: KPI{
			TotalRevenue:  money.Round2(t.revenue),
			TotalOrders:   t.orders,
			AvgTicket:     decimal.Zero,
			DeliveryCount: t.delivery,
			PickupCount:   t.pickup,
			CashTotal:     money.Round2(t.cash),
			MPTotal:       money.Round2(t.mp),
		},
		HourlySales:  make([]HourBucket, 0, len(t.hourly)),
		TopProducts:  t.products,
		PeakHour:     HourBucket{Hour: noPeakLabel, Total: decimal.Zero},
		RecentOrders: recent,
	}
	if d.TopProducts == nil {
		d.TopProducts = []ProductCount{}
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []order.Order{}
	}
	for h, total := range t.hourly {
		b := HourBucket{Hour: hourLabel(h), Total: money.Round2(total)}
		d.HourlySales = append(d.HourlySales, b)
		if b.Total.GreaterThan(d.PeakHour.Total) {
			d.PeakHour = b
		}
	}
	if t.orders > 0 {
		n := decimal.NewFromInt(int64(t.orders))
		d.KPI.AvgTicket = money.Round2(t.revenue.Div(n))
		d.DeliveryRate = percent(decimal.NewFromInt(int64(t.delivery)), n)
	}
	if t.revenue.IsPositive() {
		d.CashPct = percent(t.cash, t.revenue)
		d.MPPct = percent(t.mp, t.revenue)
	}
	d.PaymentBreakdown = positive(
		Slice{Name: "Efectivo", Value: d.KPI.CashTotal},
		Slice{Name: "MercadoPago", Value: d.KPI.MPTotal},
	)
	d.DeliveryBreakdown = positive(
		Slice{Name: "Delivery", Value: decimal.NewFromInt(int64(t.delivery))},
		Slice{Name: "Retiro", Value: decimal.NewFromInt(int64(t.pickup))},
	)
	return d
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func percent(part, whole decimal.Decimal) int64 {
	return part.Mul(decimal.NewFromInt(100)).Div(whole).Round(0).IntPart()
}

func positive(slices ...Slice) []Slice {
	out := make([]Slice, 0, len(slices))
	for _, s := range slices {
		if s.Value.IsPositive() {
			out = append(out, s)
		}
	}
	return out
}
