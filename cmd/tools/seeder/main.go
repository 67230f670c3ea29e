// Command seeder creates the first back-office admin and, on an empty
// database, a small demo menu.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/app"
	"github.com/noah-isme/backend-resto/internal/auth"
	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
)

func main() {
	email := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "admin email")
	name := flag.String("admin-name", os.Getenv("SEED_ADMIN_NAME"), "admin display name")
	password := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (min 8 chars)")
	withMenu := flag.Bool("menu", true, "seed the demo menu when the catalog is empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := app.OpenPostgres(ctx, cfg.DatabaseURL, "resto-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()
	queries := dbgen.New(pool)

	if *email != "" {
		authService, err := auth.NewService(auth.Config{Queries: queries, Secret: cfg.JWTSecret})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise auth service")
		}
		admin, err := authService.CreateAdmin(ctx, *email, *name, *password)
		if err != nil {
			logger.Fatal().Err(err).Msg("create admin")
		}
		logger.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("admin ready")
	} else {
		logger.Warn().Msg("no admin email given, skipping admin account")
	}

	if *withMenu {
		admin := &catalog.AdminService{Q: queries, Tx: db.NewPoolTransactor(pool), Logger: &logger}
		if err := seedMenu(ctx, admin, logger); err != nil {
			logger.Fatal().Err(err).Msg("seed menu")
		}
		if err := seedCoupon(ctx, &coupon.Service{Q: queries, Logger: &logger}, logger); err != nil {
			logger.Fatal().Err(err).Msg("seed coupon")
		}
	}
	logger.Info().Msg("seeding completed")
}

type demoProduct struct {
	name        string
	description string
	price       int64
	category    string
	groups      []string
	tags        []string
}

var demoProducts = []demoProduct{
	{"Clásica", "Medallón 120g, cheddar, lechuga, tomate", 6500, "Hamburguesas", []string{"Punto", "Extras"}, []string{"NUEVO"}},
	{"Doble Bacon", "Doble medallón, doble cheddar, bacon crocante", 9200, "Hamburguesas", []string{"Punto", "Extras"}, nil},
	{"Veggie", "Medallón de garbanzos, rúcula, tomate asado", 7000, "Hamburguesas", []string{"Extras"}, []string{"VEGANO"}},
	{"Papas Clásicas", "Porción grande", 3500, "Acompañamientos", nil, nil},
	{"Papas Cheddar", "Con cheddar y verdeo", 4800, "Acompañamientos", nil, nil},
	{"Gaseosa 500ml", "", 1800, "Bebidas", nil, nil},
}

func seedMenu(ctx context.Context, admin *catalog.AdminService, logger zerolog.Logger) error {
	existing, err := admin.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Int("categories", len(existing)).Msg("catalog not empty, skipping demo menu")
		return nil
	}

	categories := map[string]int64{}
	for _, n := range []string{"Hamburguesas", "Acompañamientos", "Bebidas"} {
		c, err := admin.SaveCategory(ctx, 0, n)
		if err != nil {
			return err
		}
		categories[n] = c.ID
	}

	groups := map[string]int64{}
	punto, err := admin.SaveGroup(ctx, 0, catalog.GroupInput{Name: "Punto", Kind: "single", Required: true})
	if err != nil {
		return err
	}
	groups["Punto"] = punto.ID
	for _, o := range []string{"Jugosa", "A punto", "Bien cocida"} {
		if _, err := admin.AddOption(ctx, punto.ID, catalog.OptionInput{Name: o}); err != nil {
			return err
		}
	}
	extras, err := admin.SaveGroup(ctx, 0, catalog.GroupInput{Name: "Extras", Kind: "multiple", MaxSelection: 3})
	if err != nil {
		return err
	}
	groups["Extras"] = extras.ID
	for _, o := range []struct {
		name  string
		price int64
	}{{"Cheddar extra", 900}, {"Bacon", 1200}, {"Huevo", 700}} {
		if _, err := admin.AddOption(ctx, extras.ID, catalog.OptionInput{Name: o.name, Price: decimal.NewFromInt(o.price)}); err != nil {
			return err
		}
	}

	for _, p := range demoProducts {
		price := decimal.NewFromInt(p.price)
		categoryID := categories[p.category]
		in := catalog.ProductInput{
			Name:        p.name,
			Description: p.description,
			Price:       &price,
			CategoryID:  &categoryID,
			PromoTags:   p.tags,
		}
		for _, g := range p.groups {
			in.GroupIDs = append(in.GroupIDs, groups[g])
		}
		if _, err := admin.SaveProduct(ctx, 0, in); err != nil {
			return err
		}
	}
	logger.Info().Int("products", len(demoProducts)).Msg("demo menu created")
	return nil
}

func seedCoupon(ctx context.Context, svc *coupon.Service, logger zerolog.Logger) error {
	_, err := svc.Create(ctx, coupon.Input{Code: "BIENVENIDA", DiscountType: "percent", Value: decimal.NewFromInt(10)})
	if errors.Is(err, coupon.ErrDuplicateCode) {
		logger.Info().Msg("demo coupon already exists")
		return nil
	}
	return err
}
