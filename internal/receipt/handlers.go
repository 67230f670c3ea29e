package receipt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/metrics"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
)

// OrderSource loads one order with its items.
type OrderSource interface {
	Get(ctx context.Context, id int64) (order.Order, error)
}

// DashboardSource computes the metrics shown in the report.
type DashboardSource interface {
	Dashboard(ctx context.Context, filter string) (metrics.Dashboard, error)
}

// Handler serves tickets and reports as HTML, or as PDF with ?format=pdf.
type Handler struct {
	Orders   OrderSource
	Metrics  DashboardSource
	PDF      PDFRenderer
	Branding Branding
	Loc      *time.Location
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// Ticket handles GET /api/v1/admin/orders/{id}/ticket.
func (h Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "RECEIPT_NOT_CONFIGURED", "order source not configured", nil)
		return
	}
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, order.ToAppError(err))
		return
	}
	doc, err := Ticket(o, h.Branding, h.Loc)
	if err != nil {
		h.logger().Error().Err(err).Int64("order_id", id).Msg("render ticket")
		common.WriteError(w, err)
		return
	}
	h.write(w, r, doc, Paper80mm, "ticket", fmt.Sprintf("pedido-%d.pdf", id))
}

// Report handles GET /api/v1/admin/metrics/report?filter=.
func (h Handler) Report(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		common.JSONError(w, http.StatusInternalServerError, "RECEIPT_NOT_CONFIGURED", "metrics source not configured", nil)
		return
	}
	d, err := h.Metrics.Dashboard(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	doc, err := Report(d, h.Branding, h.Loc, h.now())
	if err != nil {
		h.logger().Error().Err(err).Str("filter", d.Range.Filter).Msg("render report")
		common.WriteError(w, err)
		return
	}
	h.write(w, r, doc, PaperA4, "report", fmt.Sprintf("reporte-%s.pdf", d.Range.Filter))
}

func (h Handler) write(w http.ResponseWriter, r *http.Request, doc []byte, paper Paper, kind, filename string) {
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("format") != "pdf" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
		return
	}
	if h.PDF == nil {
		common.WriteError(w, common.NewAppError("PDF_UNAVAILABLE", "pdf rendering is not available", http.StatusServiceUnavailable, ErrPDFUnavailable))
		return
	}
	start := time.Now()
	pdf, err := h.PDF.RenderPDF(r.Context(), doc, paper)
	obs.ObserveMillis(obs.ReceiptRenderLatency, obs.DurationMillis(time.Since(start)), kind)
	if err != nil {
		h.logger().Error().Err(err).Str("kind", kind).Msg("render pdf")
		if errors.Is(err, context.DeadlineExceeded) {
			common.WriteError(w, common.NewAppError("PDF_TIMEOUT", "pdf rendering timed out", http.StatusGatewayTimeout, err))
			return
		}
		common.WriteError(w, common.NewAppError("PDF_FAILED", "pdf rendering failed", http.StatusBadGateway, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handler) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
