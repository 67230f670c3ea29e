// Package settings exposes the store-wide open/closed switch.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

const statusCacheKey = "store:is_open"

// ErrStoreClosed is returned to checkout while the store is closed.
var ErrStoreClosed = errors.New("settings: store closed")

// Status is the public store state.
type Status struct {
	IsOpen    bool      `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service reads and flips store_config row 1.
type Service struct {
	Q      dbgen.Querier
	R      *redis.Client
	TTL    time.Duration
	Logger *zerolog.Logger
}

// Status returns the current state. A missing row means open.
func (s *Service) Status(ctx context.Context) (Status, error) {
	if s.R != nil && s.TTL > 0 {
		if raw, err := s.R.Get(ctx, statusCacheKey).Result(); err == nil {
			if open, perr := strconv.ParseBool(raw); perr == nil {
				return Status{IsOpen: open}, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.warn(err, "store status cache read failed")
		}
	}
	row, err := s.Q.GetStoreConfig(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return Status{IsOpen: true}, nil
		}
		return Status{}, fmt.Errorf("get store config: %w", err)
	}
	s.cache(ctx, row.IsOpen)
	return Status{IsOpen: row.IsOpen, UpdatedAt: row.UpdatedAt.Time}, nil
}

// SetOpen persists the switch and refreshes the cache.
func (s *Service) SetOpen(ctx context.Context, open bool) (Status, error) {
	row, err := s.Q.SetStoreOpen(ctx, open)
	if err != nil {
		return Status{}, fmt.Errorf("set store open: %w", err)
	}
	s.cache(ctx, row.IsOpen)
	return Status{IsOpen: row.IsOpen, UpdatedAt: row.UpdatedAt.Time}, nil
}

// EnsureOpen returns ErrStoreClosed unless orders are being accepted.
func (s *Service) EnsureOpen(ctx context.Context) error {
	st, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if !st.IsOpen {
		return ErrStoreClosed
	}
	return nil
}

func (s *Service) cache(ctx context.Context, open bool) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	if err := s.R.Set(ctx, statusCacheKey, strconv.FormatBool(open), s.TTL).Err(); err != nil {
		s.warn(err, "store status cache write failed")
	}
}

func (s *Service) warn(err error, msg string) {
	if s.Logger != nil {
		s.Logger.Warn().Err(err).Msg(msg)
	}
}
