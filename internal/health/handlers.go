package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var draining atomic.Bool

// SetReady toggles readiness. The API clears it when shutdown begins so
// load balancers stop routing new orders before the listener closes.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Probe checks the Postgres pool and Redis client.
type Probe struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// PingDB pings the pool within timeout.
func (p Probe) PingDB(ctx context.Context, timeout time.Duration) error {
	if p.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.DB.Ping(ctx)
}

// PingRedis pings Redis within timeout.
func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}

// Handler serves /health/live and /health/ready.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
	Version      string
	Logger       *zerolog.Logger
}

type readiness struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Live answers as long as the process can serve HTTP.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes Postgres and Redis. Probe errors are logged, never echoed.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		writeReadiness(w, http.StatusServiceUnavailable, readiness{Status: "draining", Version: h.Version})
		return
	}
	if h.Checker == nil {
		writeReadiness(w, http.StatusServiceUnavailable, readiness{Status: "unconfigured", Version: h.Version})
		return
	}
	ctx := r.Context()
	out := readiness{Status: "ready", Version: h.Version, Checks: map[string]string{"postgres": "ok", "redis": "ok"}}
	if err := h.Checker.PingDB(ctx, h.dbTimeout()); err != nil {
		h.fail(&out, "postgres", err)
	}
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		h.fail(&out, "redis", err)
	}
	code := http.StatusOK
	if out.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	writeReadiness(w, code, out)
}

func (h Handler) fail(out *readiness, check string, err error) {
	out.Status = "degraded"
	out.Checks[check] = "unavailable"
	if h.Logger != nil {
		h.Logger.Warn().Err(err).Str("check", check).Msg("readiness probe failed")
	}
}

func writeReadiness(w http.ResponseWriter, code int, body readiness) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
