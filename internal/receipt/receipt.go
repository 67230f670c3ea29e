// Package receipt renders the printable surfaces of the back office: the
// 80mm kitchen ticket and the A4 sales report.
package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/metrics"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/order"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	DefaultBusiness = "AMERICAN BURGER"
	DefaultLocation = "Catamarca, Argentina"

	// dateLayout mirrors the es-AR locale: day and month without padding.
	dateLayout = "2/1/2006, 15:04:05"

	chartHeightPx = 64
)

var periodLabels = map[string]string{
	metrics.FilterToday:     "HOY",
	metrics.FilterYesterday: "AYER",
	metrics.FilterWeek:      "SEMANA",
	metrics.FilterMonth:     "MES",
	metrics.FilterAll:       "TODO",
}

// Branding is printed on every document.
type Branding struct {
	Business string
	Location string
}

func (b Branding) withDefaults() Branding {
	if strings.TrimSpace(b.Business) == "" {
		b.Business = DefaultBusiness
	}
	if strings.TrimSpace(b.Location) == "" {
		b.Location = DefaultLocation
	}
	return b
}

type ticketLine struct {
	Quantity int
	Product  string
	Extras   string
	Note     string
	Total    string
}

type ticketView struct {
	Branding
	ID       int64
	Date     string
	Delivery bool
	Customer string
	Phone    string
	Address  string
	Payment  string
	Lines    []ticketLine
	Subtotal string
	Discount string
	Total    string
}

// Ticket renders the 80mm ticket. The subtotal is Σ price×qty of the
// items; the discount row only appears when the order carries one.
func Ticket(o order.Order, b Branding, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	view := ticketView{
		Branding: b.withDefaults(),
		ID:       o.ID,
		Date:     o.CreatedAt.In(loc).Format(dateLayout),
		Delivery: o.DeliveryMethod == "delivery",
		Customer: o.CustomerName,
		Phone:    o.CustomerPhone,
		Address:  o.CustomerAddress,
		Payment:  paymentLabel(o.PaymentMethod),
		Subtotal: money.FormatPrice(o.Subtotal()),
		Total:    money.FormatPrice(o.Total),
		Lines:    make([]ticketLine, 0, len(o.Items)),
	}
	if o.Discount.GreaterThan(decimal.Zero) {
		view.Discount = money.FormatPrice(o.Discount)
	}
	for _, it := range o.Items {
		view.Lines = append(view.Lines, ticketLine{
			Quantity: it.Quantity,
			Product:  it.ProductName,
			Extras:   strings.Join(it.Extras(), ", "),
			Note:     strings.TrimSpace(it.Note),
			Total:    money.FormatPrice(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		})
	}
	return execute("ticket.html", view)
}

func paymentLabel(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return "EFECTIVO"
	}
	return strings.ToUpper(method)
}

type reportCard struct {
	Label string
	Value string
	Sub   string
}

type reportHour struct {
	Label  string
	Height int
	Class  string
}

type reportProduct struct {
	Rank     int
	Name     string
	Quantity int
	Pct      int
}

type reportOrder struct {
	ID       int64
	Customer string
	Method   string
	Payment  string
	Status   string
	Total    string
}

type reportView struct {
	Branding
	Period        string
	GeneratedAt   string
	Cards         []reportCard
	PeakHour      string
	Hours         []reportHour
	Products      []reportProduct
	CashPct       int64
	CashTotal     string
	MPTotal       string
	DeliveryRate  int64
	DeliveryCount int
	PickupCount   int
	Recent        []reportOrder
}

// Report renders the A4 dashboard report for d.
func Report(d metrics.Dashboard, b Branding, loc *time.Location, now time.Time) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	period, ok := periodLabels[d.Range.Filter]
	if !ok {
		period = strings.ToUpper(d.Range.Filter)
	}
	k := d.KPI
	view := reportView{
		Branding:    b.withDefaults(),
		Period:      period,
		GeneratedAt: now.In(loc).Format(dateLayout),
		Cards: []reportCard{
			{Label: "Ventas Totales", Value: money.FormatPrice(k.TotalRevenue), Sub: fmt.Sprintf("%d pedidos", k.TotalOrders)},
			{Label: "Ticket Promedio", Value: money.FormatPrice(k.AvgTicket), Sub: "por pedido"},
			{Label: "Hora Pico", Value: d.PeakHour.Hour, Sub: money.FormatPrice(d.PeakHour.Total)},
			{Label: "Tasa Delivery", Value: fmt.Sprintf("%d%%", d.DeliveryRate), Sub: fmt.Sprintf("%d envíos", k.DeliveryCount)},
			{Label: "Efectivo", Value: money.FormatPrice(k.CashTotal), Sub: fmt.Sprintf("%d%% del total", d.CashPct)},
			{Label: "Mercado Pago", Value: money.FormatPrice(k.MPTotal), Sub: fmt.Sprintf("%d%% del total", d.MPPct)},
			{Label: "Delivery", Value: fmt.Sprint(k.DeliveryCount), Sub: "pedidos con envío"},
			{Label: "Retiro en Local", Value: fmt.Sprint(k.PickupCount), Sub: "pedidos con retiro"},
		},
		PeakHour:      d.PeakHour.Hour,
		Hours:         hourBars(d.HourlySales, d.PeakHour),
		CashPct:       d.CashPct,
		CashTotal:     money.FormatPrice(k.CashTotal),
		MPTotal:       money.FormatPrice(k.MPTotal),
		DeliveryRate:  d.DeliveryRate,
		DeliveryCount: k.DeliveryCount,
		PickupCount:   k.PickupCount,
	}

	if len(d.TopProducts) > 0 {
		top := d.TopProducts[0].Quantity
		if top <= 0 {
			top = 1
		}
		for i, p := range d.TopProducts {
			view.Products = append(view.Products, reportProduct{
				Rank:     i + 1,
				Name:     p.Name,
				Quantity: p.Quantity,
				Pct:      p.Quantity * 100 / top,
			})
		}
	}
	for _, o := range d.RecentOrders {
		method := "Retiro"
		if o.DeliveryMethod == "delivery" {
			method = "Delivery"
		}
		view.Recent = append(view.Recent, reportOrder{
			ID:       o.ID,
			Customer: o.CustomerName,
			Method:   method,
			Payment:  paymentLabel(o.PaymentMethod),
			Status:   o.Status,
			Total:    money.FormatPrice(o.Total),
		})
	}
	return execute("report.html", view)
}

// hourBars scales hourly totals to the chart height. Non-empty hours keep
// at least 2px so they stay visible next to the peak.
func hourBars(hours []metrics.HourBucket, peak metrics.HourBucket) []reportHour {
	maxVal := decimal.NewFromInt(1)
	for _, h := range hours {
		if h.Total.GreaterThan(maxVal) {
			maxVal = h.Total
		}
	}
	out := make([]reportHour, 0, len(hours))
	for _, h := range hours {
		bar := reportHour{Label: h.Hour + " " + money.FormatPrice(h.Total), Class: "empty"}
		if h.Total.IsPositive() {
			bar.Height = int(h.Total.Mul(decimal.NewFromInt(chartHeightPx)).Div(maxVal).IntPart())
			if bar.Height < 2 {
				bar.Height = 2
			}
			bar.Class = ""
			if h.Total.Equal(peak.Total) {
				bar.Class = "peak"
			}
		}
		out = append(out, bar)
	}
	return out
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
