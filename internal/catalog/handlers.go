package catalog

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Menu handles GET /api/v1/menu?category=&q=.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	query := r.URL.Query()
	products, err := h.service.Menu(r.Context(), MenuFilter{
		Category: query.Get("category"),
		Search:   query.Get("q"),
	})
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, products)
}

// Product handles GET /api/v1/menu/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	product, err := h.service.Product(r.Context(), id)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, product)
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.Categories(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Banners handles GET /api/v1/banners.
func (h *Handler) Banners(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ActiveBanners(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Offers handles GET /api/v1/offers.
func (h *Handler) Offers(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ActiveOffers(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// AdminHandler serves the back-office catalog forms.
type AdminHandler struct {
	Svc     *AdminService
	Coupons CouponLister
}

type activeRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

type bannerRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// Snapshot handles GET /admin/catalog.
func (h *AdminHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Svc.Snapshot(r.Context(), h.Coupons)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, snap)
}

// TagPresets handles GET /admin/products/tags.
func (h *AdminHandler) TagPresets(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, TagPresets)
}

// ListProducts handles GET /admin/products.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.ListProducts(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, products)
}

// CreateProduct handles POST /admin/products.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, 0, http.StatusCreated)
}

// UpdateProduct handles PUT /admin/products/{id}.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.saveProduct(w, r, id, http.StatusOK)
}

func (h *AdminHandler) saveProduct(w http.ResponseWriter, r *http.Request, id int64, status int) {
	var in ProductInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	product, err := h.Svc.SaveProduct(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, status, product)
}

// SetProductActive handles PATCH /admin/products/{id}/active.
func (h *AdminHandler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Svc.SetProductActive)
}

// DeleteProduct handles DELETE /admin/products/{id}.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.DeleteProduct)
}

// LinkGroup handles PUT /admin/products/{id}/groups/{groupId}.
func (h *AdminHandler) LinkGroup(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, true)
}

// UnlinkGroup handles DELETE /admin/products/{id}/groups/{groupId}.
func (h *AdminHandler) UnlinkGroup(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, false)
}

func (h *AdminHandler) link(w http.ResponseWriter, r *http.Request, linked bool) {
	productID, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	groupID, err := common.URLParamID(r, "groupId")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.LinkGroup(r.Context(), productID, groupID, linked); err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory handles POST /admin/categories.
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	cat, err := h.Svc.SaveCategory(r.Context(), 0, req.Name)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, cat)
}

// UpdateCategory handles PUT /admin/categories/{id}.
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req nameRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	cat, err := h.Svc.SaveCategory(r.Context(), id, req.Name)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /admin/categories/{id}.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.DeleteCategory)
}

// ListGroups handles GET /admin/modifier-groups.
func (h *AdminHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Svc.ListGroups(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, groups)
}

// CreateGroup handles POST /admin/modifier-groups.
func (h *AdminHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	h.saveGroup(w, r, 0, http.StatusCreated)
}

// UpdateGroup handles PUT /admin/modifier-groups/{id}.
func (h *AdminHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.saveGroup(w, r, id, http.StatusOK)
}

func (h *AdminHandler) saveGroup(w http.ResponseWriter, r *http.Request, id int64, status int) {
	var in GroupInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	group, err := h.Svc.SaveGroup(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, status, group)
}

// DeleteGroup handles DELETE /admin/modifier-groups/{id}.
func (h *AdminHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.DeleteGroup)
}

// AddOption handles POST /admin/modifier-groups/{id}/options.
func (h *AdminHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	groupID, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in OptionInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	opt, err := h.Svc.AddOption(r.Context(), groupID, in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, opt)
}

// UpdateOption handles PUT /admin/modifier-options/{id}.
func (h *AdminHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in OptionInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	opt, err := h.Svc.UpdateOption(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, opt)
}

// DeleteOption handles DELETE /admin/modifier-options/{id}.
func (h *AdminHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.DeleteOption)
}

// ListBanners handles GET /admin/banners.
func (h *AdminHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.Svc.ListBanners(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, banners)
}

// CreateBanner handles POST /admin/banners.
func (h *AdminHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	banner, err := h.Svc.CreateBanner(r.Context(), req.Title, req.ImageURL)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, banner)
}

// SetBannerActive handles PATCH /admin/banners/{id}/active.
func (h *AdminHandler) SetBannerActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Svc.SetBannerActive)
}

// DeleteBanner handles DELETE /admin/banners/{id}.
func (h *AdminHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.DeleteBanner)
}

// ListOffers handles GET /admin/offers.
func (h *AdminHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.Svc.ListOffers(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, offers)
}

// CreateOffer handles POST /admin/offers.
func (h *AdminHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var in OfferInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	in.Type = strings.TrimSpace(in.Type)
	offer, err := h.Svc.CreateOffer(r.Context(), in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, offer)
}

// SetOfferActive handles PATCH /admin/offers/{id}/active.
func (h *AdminHandler) SetOfferActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Svc.SetOfferActive)
}

// DeleteOffer handles DELETE /admin/offers/{id}.
func (h *AdminHandler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Svc.DeleteOffer)
}

func (h *AdminHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, active bool) error) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req activeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := fn(r.Context(), id, *req.IsActive); err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) remove(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
