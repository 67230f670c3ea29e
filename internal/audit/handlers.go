package audit

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the admin activity log.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/admin/audit?limit=&offset=.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Service.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	page, err := h.Service.List(r.Context(), common.ParsePage(r, 50, 200))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	common.Data(w, http.StatusOK, page)
}
