package catalog_test

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
)

// fakeCatalog keeps catalog tables in memory. Only the catalog methods are
// implemented; anything else panics through the nil embedded interface.
type fakeCatalog struct {
	dbgen.Querier

	mu         sync.Mutex
	nextID     int64
	categories map[int64]dbgen.Category
	offers     map[int64]dbgen.SpecialOffer
	products   map[int64]dbgen.Product
	groups     map[int64]dbgen.ModifierGroup
	options    map[int64]dbgen.ModifierOption
	links      map[[2]int64]struct{}
	banners    map[int64]dbgen.Banner

	listProductsCalls int
	calls             []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		nextID:     100,
		categories: map[int64]dbgen.Category{},
		offers:     map[int64]dbgen.SpecialOffer{},
		products:   map[int64]dbgen.Product{},
		groups:     map[int64]dbgen.ModifierGroup{},
		options:    map[int64]dbgen.ModifierOption{},
		links:      map[[2]int64]struct{}{},
		banners:    map[int64]dbgen.Banner{},
	}
}

func num(v string) pgtype.Numeric {
	return money.ToNumeric(decimal.RequireFromString(v))
}

func (f *fakeCatalog) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalog) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeCatalog) seedCategory(id int64, name string) {
	f.categories[id] = dbgen.Category{ID: id, Name: name}
}

func (f *fakeCatalog) seedProduct(id int64, name, price string, categoryID int64, active bool) {
	p := dbgen.Product{ID: id, Name: name, Price: num(price), IsActive: active}
	if categoryID > 0 {
		p.CategoryID = pgtype.Int8{Int64: categoryID, Valid: true}
	}
	f.products[id] = p
}

func (f *fakeCatalog) seedGroup(id int64, name string, minSel, maxSel int32) {
	f.groups[id] = dbgen.ModifierGroup{ID: id, Name: name, MinSelection: minSel, MaxSelection: maxSel}
}

func (f *fakeCatalog) seedOption(id, groupID int64, name, price string, available bool) {
	f.options[id] = dbgen.ModifierOption{ID: id, GroupID: groupID, Name: name, Price: num(price), IsAvailable: available}
}

func (f *fakeCatalog) link(productID, groupID int64) {
	f.links[[2]int64{productID, groupID}] = struct{}{}
}

func (f *fakeCatalog) ListCategories(context.Context) ([]dbgen.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dbgen.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) CreateCategory(_ context.Context, name string) (dbgen.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := dbgen.Category{ID: f.id(), Name: name}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCatalog) UpdateCategory(_ context.Context, arg dbgen.UpdateCategoryParams) (dbgen.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[arg.ID]
	if !ok {
		return dbgen.Category{}, pgx.ErrNoRows
	}
	c.Name = arg.Name
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return 0, nil
	}
	delete(f.categories, id)
	return 1, nil
}

func (f *fakeCatalog) ListSpecialOffers(_ context.Context, onlyActive bool) ([]dbgen.SpecialOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []dbgen.SpecialOffer{}
	for _, o := range f.offers {
		if onlyActive && !o.IsActive {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) CreateSpecialOffer(_ context.Context, arg dbgen.CreateSpecialOfferParams) (dbgen.SpecialOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := dbgen.SpecialOffer{ID: f.id(), Title: arg.Title, Description: arg.Description, Type: arg.Type, DiscountValue: arg.DiscountValue, IsActive: true}
	f.offers[o.ID] = o
	return o, nil
}

func (f *fakeCatalog) SetSpecialOfferActive(_ context.Context, arg dbgen.SetActiveParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[arg.ID]
	if !ok {
		return 0, nil
	}
	o.IsActive = arg.IsActive
	f.offers[o.ID] = o
	return 1, nil
}

func (f *fakeCatalog) row(p dbgen.Product) dbgen.ProductRow {
	row := dbgen.ProductRow{
		ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, CostPrice: p.CostPrice,
		CategoryID: p.CategoryID, OfferID: p.OfferID, ImageUrl: p.ImageUrl, PromoTag: p.PromoTag, IsActive: p.IsActive,
	}
	if p.CategoryID.Valid {
		row.CategoryName = f.categories[p.CategoryID.Int64].Name
	}
	if p.OfferID.Valid {
		if o, ok := f.offers[p.OfferID.Int64]; ok {
			row.OfferRefID = pgtype.Int8{Int64: o.ID, Valid: true}
			row.OfferTitle = pgtype.Text{String: o.Title, Valid: true}
			row.OfferType = pgtype.Text{String: o.Type, Valid: true}
			row.OfferDiscountValue = pgtype.Text{String: o.DiscountValue, Valid: true}
			row.OfferIsActive = pgtype.Bool{Bool: o.IsActive, Valid: true}
		}
	}
	return row
}

func (f *fakeCatalog) ListProducts(_ context.Context, onlyActive bool) ([]dbgen.ProductRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listProductsCalls++
	out := []dbgen.ProductRow{}
	for _, p := range f.products {
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, f.row(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (dbgen.ProductRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return dbgen.ProductRow{}, pgx.ErrNoRows
	}
	return f.row(p), nil
}

func productFromParams(id int64, arg dbgen.ProductParams) dbgen.Product {
	return dbgen.Product{
		ID: id, Name: arg.Name, Description: arg.Description, Price: arg.Price, CostPrice: arg.CostPrice,
		CategoryID: arg.CategoryID, OfferID: arg.OfferID, ImageUrl: arg.ImageUrl, PromoTag: arg.PromoTag, IsActive: arg.IsActive,
	}
}

func (f *fakeCatalog) CreateProduct(_ context.Context, arg dbgen.ProductParams) (dbgen.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := productFromParams(f.id(), arg)
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, arg dbgen.ProductParams) (dbgen.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[arg.ID]; !ok {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	p := productFromParams(arg.ID, arg)
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalog) SetProductActive(_ context.Context, arg dbgen.SetActiveParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[arg.ID]
	if !ok {
		return 0, nil
	}
	p.IsActive = arg.IsActive
	f.products[p.ID] = p
	return 1, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteProduct")
	if _, ok := f.products[id]; !ok {
		return 0, nil
	}
	delete(f.products, id)
	return 1, nil
}

func (f *fakeCatalog) DeleteProductModifiers(_ context.Context, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteProductModifiers")
	for k := range f.links {
		if k[0] == productID {
			delete(f.links, k)
		}
	}
	return nil
}

func (f *fakeCatalog) CreateProductModifier(_ context.Context, arg dbgen.ProductModifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[[2]int64{arg.ProductID, arg.GroupID}] = struct{}{}
	return nil
}

func (f *fakeCatalog) ListProductModifiers(_ context.Context, productIDs []int64) ([]dbgen.ProductModifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range productIDs {
		want[id] = true
	}
	out := []dbgen.ProductModifier{}
	for k := range f.links {
		if len(productIDs) == 0 || want[k[0]] {
			out = append(out, dbgen.ProductModifier{ProductID: k[0], GroupID: k[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].GroupID < out[j].GroupID
	})
	return out, nil
}

func (f *fakeCatalog) DeleteGroupProductModifiers(_ context.Context, groupID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGroupProductModifiers")
	for k := range f.links {
		if k[1] == groupID {
			delete(f.links, k)
		}
	}
	return nil
}

func (f *fakeCatalog) ListModifierGroups(context.Context) ([]dbgen.ModifierGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dbgen.ModifierGroup, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) CreateModifierGroup(_ context.Context, arg dbgen.ModifierGroupParams) (dbgen.ModifierGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := dbgen.ModifierGroup{ID: f.id(), Name: arg.Name, MinSelection: arg.MinSelection, MaxSelection: arg.MaxSelection}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeCatalog) UpdateModifierGroup(_ context.Context, arg dbgen.ModifierGroupParams) (dbgen.ModifierGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[arg.ID]; !ok {
		return dbgen.ModifierGroup{}, pgx.ErrNoRows
	}
	g := dbgen.ModifierGroup{ID: arg.ID, Name: arg.Name, MinSelection: arg.MinSelection, MaxSelection: arg.MaxSelection}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeCatalog) DeleteModifierGroup(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteModifierGroup")
	if _, ok := f.groups[id]; !ok {
		return 0, nil
	}
	delete(f.groups, id)
	return 1, nil
}

func (f *fakeCatalog) ListModifierOptions(_ context.Context, groupIDs []int64) ([]dbgen.ModifierOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range groupIDs {
		want[id] = true
	}
	out := []dbgen.ModifierOption{}
	for _, o := range f.options {
		if len(groupIDs) == 0 || want[o.GroupID] {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) CreateModifierOption(_ context.Context, arg dbgen.ModifierOptionParams) (dbgen.ModifierOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := dbgen.ModifierOption{ID: f.id(), GroupID: arg.GroupID, Name: arg.Name, Price: arg.Price, IsAvailable: arg.IsAvailable}
	f.options[o.ID] = o
	return o, nil
}

func (f *fakeCatalog) UpdateModifierOption(_ context.Context, arg dbgen.ModifierOptionParams) (dbgen.ModifierOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.options[arg.ID]
	if !ok {
		return dbgen.ModifierOption{}, pgx.ErrNoRows
	}
	o.Name, o.Price, o.IsAvailable = arg.Name, arg.Price, arg.IsAvailable
	f.options[o.ID] = o
	return o, nil
}

func (f *fakeCatalog) DeleteModifierOptionsByGroup(_ context.Context, groupID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteModifierOptionsByGroup")
	for id, o := range f.options {
		if o.GroupID == groupID {
			delete(f.options, id)
		}
	}
	return nil
}

func (f *fakeCatalog) ListBanners(_ context.Context, onlyActive bool) ([]dbgen.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []dbgen.Banner{}
	for _, b := range f.banners {
		if onlyActive && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCatalog) GetBanner(_ context.Context, id int64) (dbgen.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.banners[id]
	if !ok {
		return dbgen.Banner{}, pgx.ErrNoRows
	}
	return b, nil
}

func (f *fakeCatalog) CreateBanner(_ context.Context, arg dbgen.CreateBannerParams) (dbgen.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := dbgen.Banner{ID: f.id(), Title: arg.Title, ImageUrl: arg.ImageUrl, IsActive: true}
	f.banners[b.ID] = b
	return b, nil
}

func (f *fakeCatalog) DeleteBanner(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.banners[id]; !ok {
		return 0, nil
	}
	delete(f.banners, id)
	return 1, nil
}

type recordingRemover struct {
	removed []string
}

func (r *recordingRemover) Remove(_ context.Context, url string) error {
	r.removed = append(r.removed, url)
	return nil
}
