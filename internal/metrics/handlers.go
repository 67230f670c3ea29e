package metrics

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the dashboard to the back office.
type Handler struct {
	Svc *Service
}

// Dashboard handles GET /api/v1/admin/metrics?filter=today|yesterday|week|month|all.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "METRICS_NOT_CONFIGURED", "metrics service not configured", nil)
		return
	}
	d, err := h.Svc.Dashboard(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, d)
}
