package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// TagPresets are the badges offered by the admin product form.
var TagPresets = []string{"NUEVO", "VEGANO", "SIN TACC", "PICANTE"}

// Category is a menu section.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Offer is a special offer as stored.
type Offer struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	DiscountValue string    `json:"discount_value"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ModifierOption is one selectable extra.
type ModifierOption struct {
	ID          int64           `json:"id"`
	GroupID     int64           `json:"group_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// ModifierGroup bundles options with selection bounds.
type ModifierGroup struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	MinSelection int              `json:"min_selection"`
	MaxSelection int              `json:"max_selection"`
	Options      []ModifierOption `json:"modifier_options"`
}

// Exclusive reports radio-style groups where exactly one option is picked.
func (g ModifierGroup) Exclusive() bool {
	return g.MinSelection == 1 && g.MaxSelection == 1
}

// Product is a menu item with its category, offer and modifier groups.
type Product struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	CategoryID   *int64           `json:"category_id,omitempty"`
	CategoryName string           `json:"category_name"`
	OfferID      *int64           `json:"offer_id,omitempty"`
	Offer        *pricing.Offer   `json:"offer,omitempty"`
	ImageURL     string           `json:"image_url"`
	PromoTags    []string         `json:"promo_tags"`
	IsActive     bool             `json:"is_active"`
	Modifiers    []ModifierGroup  `json:"modifiers"`
}

// Banner is a carousel slide.
type Banner struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	IsActive bool   `json:"is_active"`
}

// SplitTags parses the comma-joined promo_tag column.
func SplitTags(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// JoinTags normalises tags for storage. Empty input stores NULL.
func JoinTags(tags []string) (string, bool) {
	seen := make(map[string]struct{}, len(tags))
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		clean = append(clean, tag)
	}
	if len(clean) == 0 {
		return "", false
	}
	return strings.Join(clean, ","), true
}

func categoryFromRow(row dbgen.Category) Category {
	return Category{ID: row.ID, Name: row.Name}
}

func offerFromRow(row dbgen.SpecialOffer) Offer {
	return Offer{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Type:          row.Type,
		DiscountValue: row.DiscountValue,
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt.Time,
	}
}

func bannerFromRow(row dbgen.Banner) Banner {
	return Banner{ID: row.ID, Title: row.Title, ImageURL: row.ImageUrl, IsActive: row.IsActive}
}

func optionFromRow(row dbgen.ModifierOption) ModifierOption {
	return ModifierOption{
		ID:          row.ID,
		GroupID:     row.GroupID,
		Name:        row.Name,
		Price:       money.FromNumeric(row.Price),
		IsAvailable: row.IsAvailable,
	}
}

func groupFromRow(row dbgen.ModifierGroup) ModifierGroup {
	return ModifierGroup{
		ID:           row.ID,
		Name:         row.Name,
		MinSelection: int(row.MinSelection),
		MaxSelection: int(row.MaxSelection),
		Options:      []ModifierOption{},
	}
}

func productFromRow(row dbgen.ProductRow) Product {
	p := Product{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Price:        money.FromNumeric(row.Price),
		CategoryName: row.CategoryName,
		ImageURL:     row.ImageUrl,
		PromoTags:    SplitTags(row.PromoTag.String),
		IsActive:     row.IsActive,
		Modifiers:    []ModifierGroup{},
	}
	if row.CostPrice.Valid {
		cost := money.FromNumeric(row.CostPrice)
		p.CostPrice = &cost
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.Int64
		p.CategoryID = &id
	}
	if row.OfferID.Valid {
		id := row.OfferID.Int64
		p.OfferID = &id
	}
	if row.OfferRefID.Valid {
		p.Offer = &pricing.Offer{
			ID:                 row.OfferRefID.Int64,
			Type:               row.OfferType.String,
			DiscountValueLabel: row.OfferDiscountValue.String,
			IsActive:           row.OfferIsActive.Bool,
		}
	}
	return p
}
