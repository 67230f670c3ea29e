package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/app"
	"github.com/noah-isme/backend-resto/internal/audit"
	"github.com/noah-isme/backend-resto/internal/auth"
	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/checkout"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/delivery"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/geocode"
	"github.com/noah-isme/backend-resto/internal/health"
	"github.com/noah-isme/backend-resto/internal/jobs"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/media"
	"github.com/noah-isme/backend-resto/internal/metrics"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/payment"
	"github.com/noah-isme/backend-resto/internal/ratelimit"
	"github.com/noah-isme/backend-resto/internal/receipt"
	"github.com/noah-isme/backend-resto/internal/resilience"
	"github.com/noah-isme/backend-resto/internal/security"
	"github.com/noah-isme/backend-resto/internal/settings"
)

const shutdownGrace = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:    obs.DefaultServiceName,
			ServiceVersion: cfg.ServiceVersion,
			Endpoint:       cfg.OTLPEndpoint,
			Exporter:       cfg.TracingExporter,
			SamplingRatio:  cfg.TracingSampling,
			Environment:    cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := app.OpenPostgres(connectCtx, cfg.DatabaseURL, "resto-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()
	queries := dbgen.New(pool)
	tx := db.NewPoolTransactor(pool)

	redisClient, err := app.OpenRedis(connectCtx, cfg.RedisURL, cfg.MetricsEnabled)
	if redisClient == nil {
		logger.Fatal().Err(err).Msg("open redis")
	}
	if err != nil {
		logger.Error().Err(err).Msg("instrument redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}

	loc := cfg.Location()
	locker := lock.Locker{R: redisClient}
	mediaStore := &media.Store{Dir: cfg.MediaDir, BaseURL: cfg.MediaBaseURL, MaxBytes: cfg.MediaMaxBytes}
	branding := receipt.Branding{}

	// Events fan out to every API replica over Redis and, when archiving is
	// on, into the receipt queue.
	pubsub := &events.RedisPubSub{R: redisClient, Logger: &logger}
	bus := &events.Bus{Publishers: []events.Publisher{pubsub}}
	if cfg.ReceiptArchive {
		taskOpt, err := app.TaskRedisOpt(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("task queue config")
		}
		taskClient := asynq.NewClient(taskOpt)
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
		bus.Publishers = append(bus.Publishers, jobs.Enqueuer{Client: taskClient, Queue: cfg.WorkerQueue, Logger: &logger})
	}

	menuCache := catalog.NewCache(redisClient, cfg.MenuCacheTTL)
	catalogService, err := catalog.NewService(catalog.ServiceConfig{Queries: queries, Cache: menuCache, Logger: &logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	couponSvc := &coupon.Service{Q: queries, Logger: &logger}
	couponHandler := &coupon.Handler{Svc: couponSvc}

	catalogAdmin := &catalog.AdminHandler{
		Svc:     &catalog.AdminService{Q: queries, Tx: tx, Cache: menuCache, Images: mediaStore, Logger: &logger},
		Coupons: couponSvc,
	}

	settingsSvc := &settings.Service{Q: queries, R: redisClient, TTL: cfg.StoreCacheTTL, Logger: &logger}
	settingsHandler := &settings.Handler{Svc: settingsSvc}

	cartSvc := &cart.Service{
		Store:    &cart.RedisStore{R: redisClient, TTL: cfg.CartTTL},
		Products: catalogService,
		Coupons:  couponSvc,
		Lock:     locker,
		Logger:   &logger,
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	breakerCfg := resilience.BreakerConfig{MinRequests: cfg.BreakerFailures, FailureRatio: 0.5, OpenFor: cfg.BreakerOpenFor}

	geocodeClient := &resilience.Client{
		HTTP:    obs.NewHTTPClient(cfg.GeocodeTimeout),
		Breaker: resilience.NewBreaker("nominatim", breakerCfg).WithLogger(logger),
		Timeout: cfg.GeocodeTimeout,
		Header:  http.Header{"User-Agent": []string{cfg.GeocodeUA}},
	}
	geocodeHandler := &geocode.Handler{Svc: &geocode.Service{
		Client:     geocodeClient,
		BaseURL:    cfg.NominatimURL,
		CitySuffix: cfg.GeocodeCity,
		Cache:      redisClient,
		Logger:     &logger,
	}}

	mpClient := &resilience.Client{
		HTTP:    obs.NewHTTPClient(cfg.MercadoPagoTimeout),
		Breaker: resilience.NewBreaker("mercadopago", breakerCfg).WithLogger(logger),
		Timeout: cfg.MercadoPagoTimeout,
		Header:  http.Header{"Authorization": []string{"Bearer " + cfg.MercadoPagoToken}},
	}
	paymentSvc := &payment.Service{
		Provider: &payment.MercadoPago{
			Client:   mpClient,
			BaseURL:  cfg.MercadoPagoBaseURL,
			BackURLs: payment.NewBackURLs(cfg.PublicBaseURL),
			Enabled:  cfg.MercadoPagoToken != "",
		},
		Logger: &logger,
	}
	paymentHandler := &payment.Handler{Svc: paymentSvc, Carts: cartSvc}

	checkoutHandler := &checkout.Handler{Svc: &checkout.Service{
		Q:             queries,
		Tx:            tx,
		Carts:         cartSvc,
		Coupons:       couponSvc,
		Store:         settingsSvc,
		Payments:      paymentSvc,
		Events:        bus,
		BusinessPhone: cfg.BusinessPhone,
		Logger:        &logger,
	}}

	orderSvc := &order.Service{Q: queries, Events: bus, Logger: &logger}
	orderHandler := &order.AdminHandler{Svc: orderSvc}
	orderStream := &order.Stream{Events: pubsub, Logger: &logger}

	metricsSvc := &metrics.Service{
		Q:      queries,
		R:      redisClient,
		TTL:    cfg.MetricsCacheTTL,
		Loc:    loc,
		Epoch:  cfg.MetricsEpoch,
		Logger: &logger,
	}
	metricsHandler := &metrics.Handler{Svc: metricsSvc}

	chromePath := cfg.ChromePath
	if chromePath == "" {
		chromePath = receipt.DetectChrome()
	}
	receiptHandler := receipt.Handler{
		Orders:   orderSvc,
		Metrics:  metricsSvc,
		PDF:      receipt.ChromeRenderer{ExecPath: chromePath},
		Branding: branding,
		Loc:      loc,
		Now:      time.Now,
		Logger:   &logger,
	}
	mediaHandler := media.Handler{Store: mediaStore, Logger: &logger}

	authService, err := auth.NewService(auth.Config{
		Queries:        queries,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
		ClockSkew:      30 * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Tokens: authService}

	auditSvc := &audit.Service{Store: queries, Enabled: cfg.AuditEnabled, SamplingRate: cfg.AuditSamplingRate}
	auditRecorder := audit.HTTPRecorder{Service: auditSvc, OnError: func(err error) {
		logger.Error().Err(err).Msg("record audit log")
	}}
	auditHandler := audit.Handler{Service: auditSvc}

	limiterErr := func(scope string) func(error) {
		return func(err error) {
			logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
		}
	}
	checkoutLimit := ratelimit.Handler{
		Limiter: ratelimit.FixedWindow{Store: limiterStore},
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("checkout"), Window: cfg.CheckoutRateWindow, Max: cfg.CheckoutRateLimit},
		OnError: limiterErr("checkout"),
	}
	geocodeLimit := ratelimit.Handler{
		Limiter: ratelimit.FixedWindow{Store: limiterStore},
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("geocode"), Window: cfg.GeocodeRateWindow, Max: cfg.GeocodeRateLimit},
		OnError: limiterErr("geocode"),
	}
	loginLimit := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: redisClient, Prefix: "resto:ratelimit:"},
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("login"), Window: cfg.LoginRateWindow, Max: cfg.LoginRateLimit},
		OnError: limiterErr("login"),
	}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes, Exempt: isUpload}.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPass))
	}

	healthHandler := health.Handler{
		Checker:      health.Probe{DB: pool, Redis: redisClient},
		DBTimeout:    cfg.ReadinessDBTimeout,
		RedisTimeout: cfg.ReadinessRedisTimeout,
		Version:      cfg.ServiceVersion,
		Logger:       &logger,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Get("/media/{bucket}/{name}", mediaHandler.Serve)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/menu", catalogHandler.Menu)
		v.Get("/menu/{id}", catalogHandler.Product)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/banners", catalogHandler.Banners)
		v.Get("/offers", catalogHandler.Offers)
		v.Get("/store/status", settingsHandler.Status)
		v.Get("/delivery/zones", delivery.ListZones)
		v.With(geocodeLimit.Middleware).Get("/geocode", geocodeHandler.Search)
		v.Post("/coupons/validate", couponHandler.Preview)

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", cartHandler.Create)
			c.Route("/{session}", func(s chi.Router) {
				s.Get("/", cartHandler.Get)
				s.Delete("/", cartHandler.Clear)
				s.Post("/items", cartHandler.AddItem)
				s.Patch("/items/{lineId}", cartHandler.UpdateItem)
				s.Delete("/items/{lineId}", cartHandler.RemoveItem)
				s.Post("/quote", cartHandler.Quote)
			})
		})

		v.With(checkoutLimit.Middleware, idem.Middleware).Post("/checkout", checkoutHandler.Submit)
		v.With(checkoutLimit.Middleware).Post("/payments/mercadopago/preference", paymentHandler.CreatePreference)

		v.With(
			loginLimit.Middleware,
			auditRecorder.Middleware(audit.HTTPConfig{Action: "admin.login", ResourceType: "auth", MetadataFunc: audit.Outcome}),
		).Post("/admin/login", authHandler.Login)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAdmin)
			admin.Use(auditRecorder.Mutations)

			admin.Get("/me", authHandler.Me)
			admin.Get("/audit", auditHandler.List)
			admin.Get("/catalog", catalogAdmin.Snapshot)
			admin.Post("/uploads/{bucket}", mediaHandler.Upload)

			admin.Route("/products", func(p chi.Router) {
				p.Get("/", catalogAdmin.ListProducts)
				p.Post("/", catalogAdmin.CreateProduct)
				p.Get("/tags", catalogAdmin.TagPresets)
				p.Put("/{id}", catalogAdmin.UpdateProduct)
				p.Patch("/{id}/active", catalogAdmin.SetProductActive)
				p.Delete("/{id}", catalogAdmin.DeleteProduct)
				p.Put("/{id}/groups/{groupId}", catalogAdmin.LinkGroup)
				p.Delete("/{id}/groups/{groupId}", catalogAdmin.UnlinkGroup)
			})
			admin.Route("/categories", func(c chi.Router) {
				c.Post("/", catalogAdmin.CreateCategory)
				c.Put("/{id}", catalogAdmin.UpdateCategory)
				c.Delete("/{id}", catalogAdmin.DeleteCategory)
			})
			admin.Route("/modifier-groups", func(g chi.Router) {
				g.Get("/", catalogAdmin.ListGroups)
				g.Post("/", catalogAdmin.CreateGroup)
				g.Put("/{id}", catalogAdmin.UpdateGroup)
				g.Delete("/{id}", catalogAdmin.DeleteGroup)
				g.Post("/{id}/options", catalogAdmin.AddOption)
			})
			admin.Put("/modifier-options/{id}", catalogAdmin.UpdateOption)
			admin.Delete("/modifier-options/{id}", catalogAdmin.DeleteOption)
			admin.Route("/banners", func(b chi.Router) {
				b.Get("/", catalogAdmin.ListBanners)
				b.Post("/", catalogAdmin.CreateBanner)
				b.Patch("/{id}/active", catalogAdmin.SetBannerActive)
				b.Delete("/{id}", catalogAdmin.DeleteBanner)
			})
			admin.Route("/offers", func(o chi.Router) {
				o.Get("/", catalogAdmin.ListOffers)
				o.Post("/", catalogAdmin.CreateOffer)
				o.Patch("/{id}/active", catalogAdmin.SetOfferActive)
				o.Delete("/{id}", catalogAdmin.DeleteOffer)
			})
			admin.Route("/coupons", func(c chi.Router) {
				c.Get("/", couponHandler.List)
				c.Post("/", couponHandler.Create)
				c.Put("/{code}", couponHandler.Update)
				c.Delete("/{code}", couponHandler.Delete)
			})
			admin.Route("/orders", func(o chi.Router) {
				o.Get("/", orderHandler.List)
				o.Get("/board", orderHandler.Board)
				o.Get("/stream", orderStream.ServeHTTP)
				o.Get("/{id}", orderHandler.Get)
				o.Patch("/{id}/status", orderHandler.UpdateStatus)
				o.Get("/{id}/ticket", receiptHandler.Ticket)
				o.Get("/{id}/receipt", mediaHandler.Receipt)
			})
			admin.Get("/metrics", metricsHandler.Dashboard)
			admin.Get("/metrics/report", receiptHandler.Report)
			admin.Put("/store/status", settingsHandler.SetStatus)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		shutdownServer(srv, logger)
	}
}

// shutdownServer flips readiness first so the balancer drains traffic,
// then waits for in-flight requests. Open event streams end with the
// base context.
func shutdownServer(srv *http.Server, logger zerolog.Logger) {
	health.SetReady(false)
	logger.Info().Msg("server draining")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
		_ = srv.Close()
	}
	logger.Info().Msg("server stopped")
}

func isUpload(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/v1/admin/uploads/")
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
