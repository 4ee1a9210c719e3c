// Package wind resolves wind samples for world coordinates. Lookups go
// through a grid-rounded cache; misses fall through to the external provider.
package wind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

// ErrUnavailable is returned when no fresh sample exists and the provider
// cannot be reached. Callers skip the dependent step and retry next tick.
var ErrUnavailable = errors.New("wind data unavailable")

type Provider interface {
	Fetch(ctx context.Context, lat, lon float64) (kitedrift.WindSample, error)
}

// Service is the lookup used by the simulator and the spawners: cache hit if
// fresh, otherwise fetch from the provider and cache the result.
type Service struct {
	cache    *Cache
	provider Provider
	logger   *slog.Logger
}

func NewService(cache *Cache, provider Provider, logger *slog.Logger) *Service {
	return &Service{cache: cache, provider: provider, logger: logger}
}

func (s *Service) Sample(ctx context.Context, lat, lon float64) (kitedrift.WindSample, error) {
	if sample, ok := s.cache.Get(lat, lon); ok {
		return sample, nil
	}

	sample, err := s.provider.Fetch(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("wind fetch failed", "lat", lat, "lon", lon, "error", err)
		return kitedrift.WindSample{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.cache.Put(sample)
	return sample, nil
}

// freshness is how long a cached sample counts as current. Older samples are
// treated as absent and refreshed.
const freshness = 10 * time.Minute

// Cache maps grid-rounded coordinates to the last known wind sample.
// Keys round to one decimal degree (~11 km) to bound size and amortize
// provider calls.
type Cache struct {
	mu      sync.Mutex
	entries map[string]kitedrift.WindSample
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]kitedrift.WindSample),
		now:     time.Now,
	}
}

func gridKey(lat, lon float64) string {
	return fmt.Sprintf("%.1f,%.1f", lat, lon)
}

// Get returns the cached sample for the grid cell containing (lat, lon).
// A sample older than the freshness window is a miss.
func (c *Cache) Get(lat, lon float64) (kitedrift.WindSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sample, ok := c.entries[gridKey(lat, lon)]
	if !ok {
		return kitedrift.WindSample{}, false
	}
	if c.now().Sub(sample.FetchedAt) > freshness {
		return kitedrift.WindSample{}, false
	}
	return sample, true
}

// Put replaces the cached sample for the grid cell containing the sample's
// coordinates. Samples are never mutated in place.
func (c *Cache) Put(sample kitedrift.WindSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[gridKey(sample.Latitude, sample.Longitude)] = sample
}
