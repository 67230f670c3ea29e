// Package geocode resolves customer addresses to map pins via Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
)

var (
	// ErrEmptyAddress is returned when there is nothing to search.
	ErrEmptyAddress = errors.New("geocode: empty address")
	// ErrNoResults is returned when Nominatim has no match.
	ErrNoResults = errors.New("geocode: no results")
)

const defaultCacheTTL = 24 * time.Hour

// JSONGetter is the outbound client; resilience.Client satisfies it.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

// Point is a resolved location.
type Point struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Service looks addresses up, caching hits in Redis when configured.
type Service struct {
	Client     JSONGetter
	BaseURL    string
	CitySuffix string
	Cache      *redis.Client
	CacheTTL   time.Duration
	Logger     *zerolog.Logger
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup returns the first match for address within the configured city.
func (s *Service) Lookup(ctx context.Context, address string) (Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Point{}, ErrEmptyAddress
	}
	query := address
	if s.CitySuffix != "" {
		query += ", " + s.CitySuffix
	}
	key := common.HashKey("geocode", strings.ToLower(query))
	if p, ok := s.cached(ctx, key); ok {
		obs.Inc(obs.GeocodeLookupsTotal, "cache")
		return p, nil
	}

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/search?format=json&limit=1&q=" + url.QueryEscape(query)
	var places []nominatimPlace
	if err := s.Client.GetJSON(ctx, endpoint, &places); err != nil {
		obs.Inc(obs.GeocodeLookupsTotal, "error")
		s.logger().Warn().Err(err).Msg("geocode_lookup_failed")
		return Point{}, fmt.Errorf("geocode: nominatim: %w", err)
	}
	if len(places) == 0 {
		obs.Inc(obs.GeocodeLookupsTotal, "empty")
		return Point{}, ErrNoResults
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		obs.Inc(obs.GeocodeLookupsTotal, "error")
		return Point{}, fmt.Errorf("geocode: malformed coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	p := Point{Lat: lat, Lng: lng, DisplayName: places[0].DisplayName}
	obs.Inc(obs.GeocodeLookupsTotal, "ok")
	s.store(ctx, key, p)
	return p, nil
}

func (s *Service) cached(ctx context.Context, key string) (Point, bool) {
	if s.Cache == nil {
		return Point{}, false
	}
	raw, err := s.Cache.Get(ctx, key).Bytes()
	if err != nil {
		return Point{}, false
	}
	var p Point
	if err := json.Unmarshal(raw, &p); err != nil {
		return Point{}, false
	}
	return p, true
}

func (s *Service) store(ctx context.Context, key string, p Point) {
	if s.Cache == nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	raw, _ := json.Marshal(p)
	if err := s.Cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.logger().Warn().Err(err).Msg("geocode_cache_write_failed")
	}
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := zerolog.Nop()
	return &l
}
