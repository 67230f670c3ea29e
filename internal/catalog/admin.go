package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

const defaultMaxSelection = 5

// ImageRemover deletes a previously uploaded image by its public URL.
type ImageRemover interface {
	Remove(ctx context.Context, url string) error
}

// AdminService implements the back-office catalog forms.
type AdminService struct {
	Q      dbgen.Querier
	Tx     db.Transactor
	Cache  *Cache
	Images ImageRemover
	Logger *zerolog.Logger
}

// ProductInput is the admin product form.
type ProductInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	CategoryID  *int64           `json:"category_id"`
	OfferID     *int64           `json:"offer_id"`
	ImageURL    string           `json:"image_url"`
	PromoTags   []string         `json:"promo_tags"`
	IsActive    *bool            `json:"is_active"`
	GroupIDs    []int64          `json:"modifier_group_ids"`
}

// GroupInput is the admin modifier group form. Kind is "single" or "multiple".
type GroupInput struct {
	Name         string `json:"name" validate:"required"`
	Kind         string `json:"kind" validate:"required,oneof=single multiple"`
	Required     bool   `json:"required"`
	MaxSelection int    `json:"max_selection" validate:"gte=0"`
}

// Bounds converts the form into min/max selection counts.
func (in GroupInput) Bounds() (minSel, maxSel int) {
	if in.Kind == "single" {
		return 1, 1
	}
	if in.Required {
		minSel = 1
	}
	maxSel = in.MaxSelection
	if maxSel <= 0 {
		maxSel = defaultMaxSelection
	}
	if maxSel < minSel {
		maxSel = minSel
	}
	return minSel, maxSel
}

// OptionInput is the admin modifier option form.
type OptionInput struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"is_available"`
}

// OfferInput is the admin special offer form.
type OfferInput struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Type          string `json:"type" validate:"required,oneof=2x1 50off 70off_2nd"`
	DiscountValue string `json:"discount_value"`
}

// Snapshot is everything the admin panel loads on open.
type Snapshot struct {
	Products   []Product       `json:"products"`
	Categories []Category      `json:"categories"`
	Groups     []ModifierGroup `json:"modifier_groups"`
	Banners    []Banner        `json:"banners"`
	Offers     []Offer         `json:"offers"`
	Coupons    any             `json:"coupons"`
}

// CouponLister supplies coupons for the admin snapshot.
type CouponLister interface {
	SnapshotCoupons(ctx context.Context) (any, error)
}

// Snapshot loads products, categories, groups, banners, offers and
// coupons concurrently.
func (s *AdminService) Snapshot(ctx context.Context, coupons CouponLister) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := loadProducts(gctx, s.Q, false)
		snap.Products = products
		return err
	})
	g.Go(func() error {
		cats, err := s.ListCategories(gctx)
		snap.Categories = cats
		return err
	})
	g.Go(func() error {
		groups, err := loadGroups(gctx, s.Q)
		snap.Groups = groups
		return err
	})
	g.Go(func() error {
		banners, err := s.ListBanners(gctx)
		snap.Banners = banners
		return err
	})
	g.Go(func() error {
		offers, err := s.ListOffers(gctx)
		snap.Offers = offers
		return err
	})
	if coupons != nil {
		g.Go(func() error {
			list, err := coupons.SnapshotCoupons(gctx)
			snap.Coupons = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ListProducts returns every product, active or not.
func (s *AdminService) ListProducts(ctx context.Context) ([]Product, error) {
	return loadProducts(ctx, s.Q, false)
}

// SaveProduct creates (id == 0) or updates a product and replaces its
// modifier group links. A replaced image is removed after commit.
func (s *AdminService) SaveProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price == nil {
		return Product{}, fmt.Errorf("Falta nombre o precio: %w", ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return Product{}, fmt.Errorf("El precio no puede ser negativo: %w", ErrInvalidInput)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	tags, hasTags := JoinTags(in.PromoTags)
	params := dbgen.ProductParams{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       money.ToNumeric(money.Round2(*in.Price)),
		CostPrice:   money.NullableNumeric(in.CostPrice),
		CategoryID:  nullableInt8(in.CategoryID),
		OfferID:     nullableInt8(in.OfferID),
		ImageUrl:    strings.TrimSpace(in.ImageURL),
		PromoTag:    pgtype.Text{String: tags, Valid: hasTags},
		IsActive:    active,
	}

	var (
		savedID  int64
		oldImage string
	)
	err := s.Tx.InTx(ctx, func(q dbgen.Querier) error {
		if id > 0 {
			existing, err := q.GetProduct(ctx, id)
			if err != nil {
				if db.IsNotFound(err) {
					return fmt.Errorf("product %d: %w", id, ErrNotFound)
				}
				return fmt.Errorf("get product: %w", err)
			}
			oldImage = existing.ImageUrl
			row, err := q.UpdateProduct(ctx, params)
			if err != nil {
				return fmt.Errorf("update product: %w", err)
			}
			savedID = row.ID
		} else {
			row, err := q.CreateProduct(ctx, params)
			if err != nil {
				return fmt.Errorf("create product: %w", err)
			}
			savedID = row.ID
		}
		if err := q.DeleteProductModifiers(ctx, savedID); err != nil {
			return fmt.Errorf("clear product modifiers: %w", err)
		}
		for _, groupID := range uniqueIDs(in.GroupIDs) {
			if err := q.CreateProductModifier(ctx, dbgen.ProductModifier{ProductID: savedID, GroupID: groupID}); err != nil {
				if db.IsForeignKeyViolation(err) {
					return fmt.Errorf("grupo %d inexistente: %w", groupID, ErrInvalidInput)
				}
				return fmt.Errorf("link modifier group: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	if oldImage != "" && oldImage != params.ImageUrl {
		s.removeImage(ctx, oldImage)
	}
	s.invalidate(ctx)
	return s.getProduct(ctx, savedID)
}

// SetProductActive toggles menu visibility.
func (s *AdminService) SetProductActive(ctx context.Context, id int64, active bool) error {
	n, err := s.Q.SetProductActive(ctx, dbgen.SetActiveParams{ID: id, IsActive: active})
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	s.invalidate(ctx)
	return nil
}

// DeleteProduct removes the product's modifier links and then the product.
func (s *AdminService) DeleteProduct(ctx context.Context, id int64) error {
	var image string
	err := s.Tx.InTx(ctx, func(q dbgen.Querier) error {
		existing, err := q.GetProduct(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return fmt.Errorf("product %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("get product: %w", err)
		}
		image = existing.ImageUrl
		if err := q.DeleteProductModifiers(ctx, id); err != nil {
			return fmt.Errorf("clear product modifiers: %w", err)
		}
		if _, err := q.DeleteProduct(ctx, id); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if image != "" {
		s.removeImage(ctx, image)
	}
	s.invalidate(ctx)
	return nil
}

// LinkGroup attaches or detaches one modifier group from a product.
func (s *AdminService) LinkGroup(ctx context.Context, productID, groupID int64, linked bool) error {
	err := s.Tx.InTx(ctx, func(q dbgen.Querier) error {
		links, err := q.ListProductModifiers(ctx, []int64{productID})
		if err != nil {
			return fmt.Errorf("list product modifiers: %w", err)
		}
		keep := make([]int64, 0, len(links)+1)
		for _, l := range links {
			if l.GroupID != groupID {
				keep = append(keep, l.GroupID)
			}
		}
		if linked {
			keep = append(keep, groupID)
		}
		if err := q.DeleteProductModifiers(ctx, productID); err != nil {
			return fmt.Errorf("clear product modifiers: %w", err)
		}
		for _, id := range uniqueIDs(keep) {
			if err := q.CreateProductModifier(ctx, dbgen.ProductModifier{ProductID: productID, GroupID: id}); err != nil {
				if db.IsForeignKeyViolation(err) {
					return fmt.Errorf("producto o grupo inexistente: %w", ErrInvalidInput)
				}
				return fmt.Errorf("link modifier group: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListCategories lists categories ordered by id.
func (s *AdminService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.Q.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromRow(row))
	}
	return out, nil
}

// SaveCategory creates (id == 0) or renames a category.
func (s *AdminService) SaveCategory(ctx context.Context, id int64, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("Falta el nombre: %w", ErrInvalidInput)
	}
	var (
		row dbgen.Category
		err error
	)
	if id > 0 {
		row, err = s.Q.UpdateCategory(ctx, dbgen.UpdateCategoryParams{ID: id, Name: name})
	} else {
		row, err = s.Q.CreateCategory(ctx, name)
	}
	if err != nil {
		if db.IsNotFound(err) {
			return Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return Category{}, fmt.Errorf("save category: %w", err)
	}
	s.invalidate(ctx)
	return categoryFromRow(row), nil
}

// DeleteCategory removes a category; its products keep existing uncategorised.
func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	n, err := s.Q.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	s.invalidate(ctx)
	return nil
}

// ListGroups returns all modifier groups with options.
func (s *AdminService) ListGroups(ctx context.Context) ([]ModifierGroup, error) {
	return loadGroups(ctx, s.Q)
}

// SaveGroup creates (id == 0) or updates a modifier group.
func (s *AdminService) SaveGroup(ctx context.Context, id int64, in GroupInput) (ModifierGroup, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ModifierGroup{}, fmt.Errorf("Falta el nombre del grupo: %w", ErrInvalidInput)
	}
	minSel, maxSel := in.Bounds()
	params := dbgen.ModifierGroupParams{ID: id, Name: name, MinSelection: int32(minSel), MaxSelection: int32(maxSel)}
	var (
		row dbgen.ModifierGroup
		err error
	)
	if id > 0 {
		row, err = s.Q.UpdateModifierGroup(ctx, params)
	} else {
		row, err = s.Q.CreateModifierGroup(ctx, params)
	}
	if err != nil {
		if db.IsNotFound(err) {
			return ModifierGroup{}, fmt.Errorf("group %d: %w", id, ErrNotFound)
		}
		return ModifierGroup{}, fmt.Errorf("save modifier group: %w", err)
	}
	s.invalidate(ctx)
	return groupFromRow(row), nil
}

// DeleteGroup removes the group's options and product links first.
func (s *AdminService) DeleteGroup(ctx context.Context, id int64) error {
	err := s.Tx.InTx(ctx, func(q dbgen.Querier) error {
		if err := q.DeleteModifierOptionsByGroup(ctx, id); err != nil {
			return fmt.Errorf("delete group options: %w", err)
		}
		if err := q.DeleteGroupProductModifiers(ctx, id); err != nil {
			return fmt.Errorf("delete group links: %w", err)
		}
		n, err := q.DeleteModifierGroup(ctx, id)
		if err != nil {
			return fmt.Errorf("delete modifier group: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("group %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// AddOption appends an option to a group.
func (s *AdminService) AddOption(ctx context.Context, groupID int64, in OptionInput) (ModifierOption, error) {
	params, err := optionParams(in)
	if err != nil {
		return ModifierOption{}, err
	}
	params.GroupID = groupID
	row, err := s.Q.CreateModifierOption(ctx, params)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ModifierOption{}, fmt.Errorf("group %d: %w", groupID, ErrNotFound)
		}
		return ModifierOption{}, fmt.Errorf("create option: %w", err)
	}
	s.invalidate(ctx)
	return optionFromRow(row), nil
}

// UpdateOption edits an option in place.
func (s *AdminService) UpdateOption(ctx context.Context, id int64, in OptionInput) (ModifierOption, error) {
	params, err := optionParams(in)
	if err != nil {
		return ModifierOption{}, err
	}
	params.ID = id
	row, err := s.Q.UpdateModifierOption(ctx, params)
	if err != nil {
		if db.IsNotFound(err) {
			return ModifierOption{}, fmt.Errorf("option %d: %w", id, ErrNotFound)
		}
		return ModifierOption{}, fmt.Errorf("update option: %w", err)
	}
	s.invalidate(ctx)
	return optionFromRow(row), nil
}

// DeleteOption removes an option.
func (s *AdminService) DeleteOption(ctx context.Context, id int64) error {
	n, err := s.Q.DeleteModifierOption(ctx, id)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("option %d: %w", id, ErrNotFound)
	}
	s.invalidate(ctx)
	return nil
}

// ListBanners returns every banner, newest first.
func (s *AdminService) ListBanners(ctx context.Context) ([]Banner, error) {
	rows, err := s.Q.ListBanners(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	out := make([]Banner, 0, len(rows))
	for _, row := range rows {
		out = append(out, bannerFromRow(row))
	}
	return out, nil
}

// CreateBanner stores an active banner. The image is mandatory.
func (s *AdminService) CreateBanner(ctx context.Context, title, imageURL string) (Banner, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return Banner{}, fmt.Errorf("¡Debes subir una imagen!: %w", ErrInvalidInput)
	}
	row, err := s.Q.CreateBanner(ctx, dbgen.CreateBannerParams{Title: strings.TrimSpace(title), ImageUrl: imageURL})
	if err != nil {
		return Banner{}, fmt.Errorf("create banner: %w", err)
	}
	s.invalidate(ctx)
	return bannerFromRow(row), nil
}

// SetBannerActive toggles a banner.
func (s *AdminService) SetBannerActive(ctx context.Context, id int64, active bool) error {
	n, err := s.Q.SetBannerActive(ctx, dbgen.SetActiveParams{ID: id, IsActive: active})
	if err != nil {
		return fmt.Errorf("set banner active: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("banner %d: %w", id, ErrNotFound)
	}
	s.invalidate(ctx)
	return nil
}

// DeleteBanner removes a banner and its image.
func (s *AdminService) DeleteBanner(ctx context.Context, id int64) error {
	row, err := s.Q.GetBanner(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("banner %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("get banner: %w", err)
	}
	if _, err := s.Q.DeleteBanner(ctx, id); err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	s.removeImage(ctx, row.ImageUrl)
	s.invalidate(ctx)
	return nil
}

// ListOffers returns every special offer.
func (s *AdminService) ListOffers(ctx context.Context) ([]Offer, error) {
	rows, err := s.Q.ListSpecialOffers(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	out := make([]Offer, 0, len(rows))
	for _, row := range rows {
		out = append(out, offerFromRow(row))
	}
	return out, nil
}

// CreateOffer stores an active special offer.
func (s *AdminService) CreateOffer(ctx context.Context, in OfferInput) (Offer, error) {
	switch in.Type {
	case pricing.OfferTwoForOne, pricing.OfferHalfOff, pricing.OfferSecondUnit70:
	default:
		return Offer{}, fmt.Errorf("tipo de oferta desconocido %q: %w", in.Type, ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return Offer{}, fmt.Errorf("Falta el título: %w", ErrInvalidInput)
	}
	row, err := s.Q.CreateSpecialOffer(ctx, dbgen.CreateSpecialOfferParams{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Type:          in.Type,
		DiscountValue: strings.TrimSpace(in.DiscountValue),
	})
	if err != nil {
		return Offer{}, fmt.Errorf("create offer: %w", err)
	}
	s.invalidate(ctx)
	return offerFromRow(row), nil
}

// SetOfferActive toggles an offer; products linked to it stop saving.
func (s *AdminService) SetOfferActive(ctx context.Context, id int64, active bool) error {
	n, err := s.Q.SetSpecialOfferActive(ctx, dbgen.SetActiveParams{ID: id, IsActive: active})
	if err != nil {
		return fmt.Errorf("set offer active: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("offer %d: %w", id, ErrNotFound)
	}
	s.invalidate(ctx)
	return nil
}

// DeleteOffer removes an offer. Linked products are unlinked by the schema.
func (s *AdminService) DeleteOffer(ctx context.Context, id int64) error {
	n, err := s.Q.DeleteSpecialOffer(ctx, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("offer %d: %w", id, ErrNotFound)
	}
	s.invalidate(ctx)
	return nil
}

func (s *AdminService) getProduct(ctx context.Context, id int64) (Product, error) {
	products, err := loadProducts(ctx, s.Q, false)
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
}

func (s *AdminService) invalidate(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

func (s *AdminService) removeImage(ctx context.Context, url string) {
	if s.Images == nil || strings.TrimSpace(url) == "" {
		return
	}
	if err := s.Images.Remove(ctx, url); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Str("url", url).Msg("remove image failed")
	}
}

func optionParams(in OptionInput) (dbgen.ModifierOptionParams, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return dbgen.ModifierOptionParams{}, fmt.Errorf("Falta el nombre de la opción: %w", ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return dbgen.ModifierOptionParams{}, fmt.Errorf("El precio no puede ser negativo: %w", ErrInvalidInput)
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return dbgen.ModifierOptionParams{
		Name:        name,
		Price:       money.ToNumeric(money.Round2(in.Price)),
		IsAvailable: available,
	}, nil
}

func nullableInt8(v *int64) pgtype.Int8 {
	if v == nil || *v <= 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
