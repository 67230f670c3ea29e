package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

var (
	// ErrNotFound is returned when a catalog entity does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrInvalidInput wraps validation failures of admin forms.
	ErrInvalidInput = errors.New("catalog: invalid input")
)

// Service assembles the public menu from the query layer and caches it.
type Service struct {
	queries dbgen.Querier
	cache   *Cache
	logger  *zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries dbgen.Querier
	Cache   *Cache
	Logger  *zerolog.Logger
}

// MenuFilter narrows the public menu. Category matches an id or a name.
type MenuFilter struct {
	Category string
	Search   string
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache, logger: cfg.Logger}, nil
}

// Menu returns active products ordered by id with their category, offer
// and modifier groups, filtered in memory from the cached full menu.
func (s *Service) Menu(ctx context.Context, filter MenuFilter) ([]Product, error) {
	products, err := s.activeMenu(ctx)
	if err != nil {
		return nil, err
	}
	return filterMenu(products, filter), nil
}

// Product returns a single active menu product.
func (s *Service) Product(ctx context.Context, id int64) (Product, error) {
	products, err := s.activeMenu(ctx)
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

// Categories lists categories ordered by id.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromRow(row))
	}
	return out, nil
}

// ActiveBanners lists carousel banners, newest first.
func (s *Service) ActiveBanners(ctx context.Context) ([]Banner, error) {
	return readThrough(ctx, s.cache, bannersCacheKey, s.cacheWarn, func(ctx context.Context) ([]Banner, error) {
		rows, err := s.queries.ListBanners(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("list banners: %w", err)
		}
		out := make([]Banner, 0, len(rows))
		for _, row := range rows {
			out = append(out, bannerFromRow(row))
		}
		return out, nil
	})
}

// ActiveOffers lists flash offers currently enabled.
func (s *Service) ActiveOffers(ctx context.Context) ([]Offer, error) {
	rows, err := s.queries.ListSpecialOffers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	out := make([]Offer, 0, len(rows))
	for _, row := range rows {
		out = append(out, offerFromRow(row))
	}
	return out, nil
}

func (s *Service) activeMenu(ctx context.Context) ([]Product, error) {
	return readThrough(ctx, s.cache, menuCacheKey, s.cacheWarn, func(ctx context.Context) ([]Product, error) {
		return loadProducts(ctx, s.queries, true)
	})
}

func (s *Service) cacheWarn(err error, key string) {
	if s.logger != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache unavailable")
	}
}

// loadProducts joins products with their modifier groups and options.
func loadProducts(ctx context.Context, q dbgen.Querier, onlyActive bool) ([]Product, error) {
	rows, err := q.ListProducts(ctx, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]Product, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		products = append(products, productFromRow(row))
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return products, nil
	}
	links, err := q.ListProductModifiers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list product modifiers: %w", err)
	}
	if len(links) == 0 {
		return products, nil
	}
	groups, err := loadGroups(ctx, q)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]ModifierGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	index := make(map[int64]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	for _, link := range links {
		i, ok := index[link.ProductID]
		if !ok {
			continue
		}
		if g, ok := byID[link.GroupID]; ok {
			products[i].Modifiers = append(products[i].Modifiers, g)
		}
	}
	return products, nil
}

// loadGroups returns every modifier group with its options ordered by id.
func loadGroups(ctx context.Context, q dbgen.Querier) ([]ModifierGroup, error) {
	rows, err := q.ListModifierGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modifier groups: %w", err)
	}
	groups := make([]ModifierGroup, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, groupFromRow(row))
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return groups, nil
	}
	opts, err := q.ListModifierOptions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list modifier options: %w", err)
	}
	index := make(map[int64]int, len(groups))
	for i, g := range groups {
		index[g.ID] = i
	}
	for _, row := range opts {
		if i, ok := index[row.GroupID]; ok {
			groups[i].Options = append(groups[i].Options, optionFromRow(row))
		}
	}
	return groups, nil
}

func filterMenu(products []Product, filter MenuFilter) []Product {
	category := strings.TrimSpace(filter.Category)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if category == "" && search == "" {
		return products
	}
	categoryID, idErr := strconv.ParseInt(category, 10, 64)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" {
			if idErr == nil {
				if p.CategoryID == nil || *p.CategoryID != categoryID {
					continue
				}
			} else if !strings.EqualFold(p.CategoryName, category) {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// toAppError maps catalog sentinels onto HTTP errors.
func toAppError(err error) error {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrNotFound):
		return common.NewAppError("NOT_FOUND", "not found", http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError("INVALID_INPUT", messageBefore(err, ErrInvalidInput), http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrRequiredGroup):
		return common.NewAppError("REQUIRED_GROUP", messageBefore(err, ErrRequiredGroup), http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}

// messageBefore strips the sentinel suffix so the user-facing text survives.
func messageBefore(err, sentinel error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+sentinel.Error()); i > 0 {
		return msg[:i]
	}
	return msg
}

// UserMessage returns the customer-facing text of a catalog validation error.
func UserMessage(err error) string {
	if errors.Is(err, ErrRequiredGroup) {
		return messageBefore(err, ErrRequiredGroup)
	}
	return messageBefore(err, ErrInvalidInput)
}
