package receipt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/metrics"
	"github.com/noah-isme/backend-resto/internal/order"
)

func sampleOrder() order.Order {
	return order.Order{
		ID:              42,
		CustomerName:    "Ana <b>",
		CustomerPhone:   "3834000000",
		CustomerAddress: "Sarmiento 123",
		Total:           decimal.NewFromInt(14500),
		Discount:        decimal.NewFromInt(1500),
		DeliveryMethod:  "delivery",
		PaymentMethod:   "",
		CreatedAt:       time.Date(2025, 3, 7, 23, 5, 9, 0, time.UTC),
		Items: []order.Item{
			{ProductName: "Doble Bacon", Quantity: 2, Price: decimal.NewFromInt(6000), Options: "Cheddar, Pepinos", Note: "sin cebolla"},
			{ProductName: "Papas", Quantity: 1, Price: decimal.NewFromInt(4000)},
		},
	}
}

func TestTicketContent(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	doc, err := Ticket(sampleOrder(), Branding{}, loc)
	require.NoError(t, err)
	html := string(doc)

	require.Contains(t, html, "AMERICAN BURGER")
	require.Contains(t, html, "Catamarca, Argentina")
	require.Contains(t, html, "7/3/2025, 20:05:09")
	require.Contains(t, html, "PEDIDO #42")
	require.Contains(t, html, "DELIVERY")
	require.Contains(t, html, "Sarmiento 123")
	require.Contains(t, html, "EFECTIVO")
	require.Contains(t, html, "+ Cheddar, Pepinos")
	require.Contains(t, html, "NOTA: sin cebolla")
	require.Contains(t, html, "$12.000")
	// Subtotal is the item sum, not total plus discount.
	require.Contains(t, html, "<span>Subtotal:</span><span>$16.000</span>")
	require.Contains(t, html, "-$1.500")
	require.Contains(t, html, "$14.500")
	require.Contains(t, html, "¡Gracias por tu compra!")
	require.Contains(t, html, "Ana &lt;b&gt;")
}

func TestTicketPickupWithoutDiscount(t *testing.T) {
	o := sampleOrder()
	o.DeliveryMethod = "pickup"
	o.Discount = decimal.Zero
	o.PaymentMethod = "mercadopago"
	doc, err := Ticket(o, Branding{Business: "LA ESQUINA"}, nil)
	require.NoError(t, err)
	html := string(doc)

	require.Contains(t, html, "LA ESQUINA")
	require.Contains(t, html, "RETIRO")
	require.Contains(t, html, "MERCADOPAGO")
	require.NotContains(t, html, "Dirección:")
	require.NotContains(t, html, "Descuento:")
}

func TestReportContent(t *testing.T) {
	d := metrics.Dashboard{
		Range: metrics.Range{Filter: metrics.FilterWeek},
		KPI: metrics.KPI{
			TotalRevenue:  decimal.NewFromInt(30000),
			TotalOrders:   3,
			AvgTicket:     decimal.NewFromInt(10000),
			DeliveryCount: 2,
			PickupCount:   1,
			CashTotal:     decimal.NewFromInt(20000),
			MPTotal:       decimal.NewFromInt(10000),
		},
		HourlySales: []metrics.HourBucket{
			{Hour: "20:00", Total: decimal.NewFromInt(10000)},
			{Hour: "21:00", Total: decimal.NewFromInt(20000)},
			{Hour: "22:00", Total: decimal.Zero},
		},
		TopProducts:  []metrics.ProductCount{{Name: "Doble Bacon", Quantity: 4}, {Name: "Papas", Quantity: 2}},
		PeakHour:     metrics.HourBucket{Hour: "21:00", Total: decimal.NewFromInt(20000)},
		DeliveryRate: 67,
		CashPct:      67,
		MPPct:        33,
		RecentOrders: []order.Order{sampleOrder()},
	}
	doc, err := Report(d, Branding{}, time.UTC, time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	html := string(doc)

	require.Contains(t, html, "SEMANA")
	require.Contains(t, html, "8/3/2025, 10:00:00")
	require.Contains(t, html, "$30.000")
	require.Contains(t, html, "67%")
	require.Contains(t, html, "Doble Bacon")
	require.Contains(t, html, "width:50%")
	require.Contains(t, html, `class="peak" style="height:64px"`)
	require.Contains(t, html, `class="" style="height:32px"`)
	require.Contains(t, html, `class="empty" style="height:0px"`)
}

func TestReportEmpty(t *testing.T) {
	doc, err := Report(metrics.Dashboard{Range: metrics.Range{Filter: metrics.FilterToday}}, Branding{}, nil, time.Now())
	require.NoError(t, err)
	require.Contains(t, string(doc), "Sin datos")
	require.Contains(t, string(doc), "Sin pedidos")
}

type fakeOrders map[int64]order.Order

func (f fakeOrders) Get(_ context.Context, id int64) (order.Order, error) {
	o, ok := f[id]
	if !ok {
		return order.Order{}, fmt.Errorf("order %d: %w", id, order.ErrNotFound)
	}
	return o, nil
}

type fakePDF struct {
	paper Paper
	err   error
}

func (f *fakePDF) RenderPDF(_ context.Context, html []byte, paper Paper) ([]byte, error) {
	f.paper = paper
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 " + fmt.Sprint(len(html))), nil
}

func serveTicket(h Handler, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/orders/{id}/ticket", h.Ticket)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestTicketHandlerFormats(t *testing.T) {
	pdf := &fakePDF{}
	h := Handler{Orders: fakeOrders{42: sampleOrder()}, PDF: pdf}

	rr := serveTicket(h, "/orders/42/ticket")
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html"))

	rr = serveTicket(h, "/orders/42/ticket?format=pdf")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "pedido-42.pdf")
	require.Equal(t, Paper80mm, pdf.paper)

	rr = serveTicket(h, "/orders/7/ticket")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTicketHandlerPDFErrors(t *testing.T) {
	rr := serveTicket(Handler{Orders: fakeOrders{42: sampleOrder()}}, "/orders/42/ticket?format=pdf")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	h := Handler{Orders: fakeOrders{42: sampleOrder()}, PDF: &fakePDF{err: errors.New("chrome crashed")}}
	rr = serveTicket(h, "/orders/42/ticket?format=pdf")
	require.Equal(t, http.StatusBadGateway, rr.Code)
}

type fakeDashboard struct{ filter string }

func (f *fakeDashboard) Dashboard(_ context.Context, filter string) (metrics.Dashboard, error) {
	f.filter = filter
	return metrics.Dashboard{Range: metrics.Range{Filter: filter}}, nil
}

func TestReportHandler(t *testing.T) {
	pdf := &fakePDF{}
	dash := &fakeDashboard{}
	h := Handler{Metrics: dash, PDF: pdf}
	rr := httptest.NewRecorder()
	h.Report(rr, httptest.NewRequest(http.MethodGet, "/metrics/report?filter=month&format=pdf", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "month", dash.filter)
	require.Equal(t, PaperA4, pdf.paper)
	require.Contains(t, rr.Header().Get("Content-Disposition"), "reporte-month.pdf")
}
