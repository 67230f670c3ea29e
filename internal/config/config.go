package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	AccessTokenTTL     time.Duration
	CORSAllowedOrigins []string

	Timezone        string
	MetricsEpoch    time.Time
	BusinessPhone   string
	PublicBaseURL   string
	GeocodeCity     string
	NominatimURL    string
	GeocodeTimeout  time.Duration
	GeocodeUA       string
	MediaDir        string
	MediaBaseURL    string
	MediaMaxBytes   int64
	ChromePath      string
	ReceiptArchive  bool
	WorkerQueue     string
	WorkerConc      int
	IdempotencyTTL  time.Duration
	CartTTL         time.Duration
	MenuCacheTTL    time.Duration
	MetricsCacheTTL time.Duration
	StoreCacheTTL   time.Duration

	MercadoPagoToken   string
	MercadoPagoBaseURL string
	MercadoPagoTimeout time.Duration

	CheckoutRateLimit     int
	CheckoutRateWindow    time.Duration
	GeocodeRateLimit      int
	GeocodeRateWindow     time.Duration
	LoginRateLimit        int
	LoginRateWindow       time.Duration
	BreakerFailures       int
	BreakerOpenFor        time.Duration
	AuditEnabled          bool
	AuditSamplingRate     float64
	BodyLimitBytes        int64
	ReadinessDBTimeout    time.Duration
	ReadinessRedisTimeout time.Duration

	LogFormat        string
	LogLevel         string
	ServiceVersion   string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	TracingSampling  float64
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "backend-resto"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "resto-admin"),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		Timezone:        valueOrDefault(k.String("APP_TIMEZONE"), "America/Argentina/Catamarca"),
		BusinessPhone:   valueOrDefault(k.String("WHATSAPP_PHONE"), "5493834968345"),
		PublicBaseURL:   strings.TrimRight(valueOrDefault(k.String("PUBLIC_BASE_URL"), "http://localhost:5173"), "/"),
		GeocodeCity:     valueOrDefault(k.String("GEOCODE_CITY_SUFFIX"), "San Fernando del Valle de Catamarca, Argentina"),
		NominatimURL:    valueOrDefault(k.String("NOMINATIM_URL"), "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:  parseDuration(k.String("GEOCODE_TIMEOUT"), "4s"),
		GeocodeUA:       valueOrDefault(k.String("GEOCODE_USER_AGENT"), "backend-resto/1.0"),
		MediaDir:        valueOrDefault(k.String("MEDIA_DIR"), "./media"),
		MediaBaseURL:    strings.TrimRight(valueOrDefault(k.String("MEDIA_BASE_URL"), "/media"), "/"),
		MediaMaxBytes:   int64(parseInt(k.String("MEDIA_MAX_BYTES"), 8<<20)),
		ChromePath:      strings.TrimSpace(k.String("CHROME_PATH")),
		ReceiptArchive:  parseBool(k.String("RECEIPT_ARCHIVE_ENABLED"), true),
		WorkerQueue:     valueOrDefault(k.String("WORKER_QUEUE"), "default"),
		WorkerConc:      parseInt(k.String("WORKER_CONCURRENCY"), 4),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		CartTTL:         parseDuration(k.String("CART_TTL"), "72h"),
		MenuCacheTTL:    parseDuration(k.String("MENU_CACHE_TTL"), "60s"),
		MetricsCacheTTL: parseDuration(k.String("METRICS_CACHE_TTL"), "30s"),
		StoreCacheTTL:   parseDuration(k.String("STORE_CACHE_TTL"), "15s"),

		MercadoPagoToken:   strings.TrimSpace(k.String("MERCADOPAGO_ACCESS_TOKEN")),
		MercadoPagoBaseURL: strings.TrimRight(valueOrDefault(k.String("MERCADOPAGO_BASE_URL"), "https://api.mercadopago.com"), "/"),
		MercadoPagoTimeout: parseDuration(k.String("MERCADOPAGO_TIMEOUT"), "8s"),

		CheckoutRateLimit:     parseInt(k.String("RATE_CHECKOUT_MAX"), 10),
		CheckoutRateWindow:    parseDuration(k.String("RATE_CHECKOUT_WINDOW"), "1m"),
		GeocodeRateLimit:      parseInt(k.String("RATE_GEOCODE_MAX"), 30),
		GeocodeRateWindow:     parseDuration(k.String("RATE_GEOCODE_WINDOW"), "1m"),
		LoginRateLimit:        parseInt(k.String("RATE_LOGIN_MAX"), 5),
		LoginRateWindow:       parseDuration(k.String("RATE_LOGIN_WINDOW"), "1m"),
		BreakerFailures:       parseInt(k.String("BREAKER_FAILURES"), 5),
		BreakerOpenFor:        parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),
		AuditEnabled:          parseBool(k.String("AUDIT_ENABLED"), true),
		AuditSamplingRate:     parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1),
		BodyLimitBytes:        int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),
		ReadinessDBTimeout:    parseDuration(k.String("HEALTH_READY_DB_TIMEOUT"), "500ms"),
		ReadinessRedisTimeout: parseDuration(k.String("HEALTH_READY_REDIS_TIMEOUT"), "300ms"),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		ServiceVersion:   valueOrDefault(k.String("APP_VERSION"), "dev"),
		MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "resto"),
		MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
		TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		PprofEnabled:     parseBool(k.String("OBS_ENABLE_PPROF"), false),
		PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
		PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
	}

	epoch, err := time.Parse("2006-01-02", valueOrDefault(k.String("METRICS_EPOCH"), "2025-01-01"))
	if err != nil {
		return nil, fmt.Errorf("METRICS_EPOCH: %w", err)
	}
	cfg.MetricsEpoch = epoch

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Location returns the business time zone. Load already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
