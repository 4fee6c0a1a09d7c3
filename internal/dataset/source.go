// Package dataset fetches and gates the cohort snapshot consumed by the
// diagnostic engine. The snapshot is validated once at this boundary; the
// calculators downstream assume a well-formed, immutable cohort.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	apidataset "github.com/axisgrid/concentra/api/dataset"
)

const maxSnapshotBytes = 8 << 20

// Fetcher retrieves one cohort snapshot.
type Fetcher interface {
	FetchCohort(ctx context.Context) (apidataset.Cohort, error)
}

// Cache is an explicit cache value object with an owner-controlled lifetime.
// A zero TTL disables caching.
type Cache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	fetchedAt time.Time
	cohort    apidataset.Cohort
}

// NewCache builds a cohort cache.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Get returns the cached cohort when it is still fresh.
func (c *Cache) Get() (apidataset.Cohort, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cohort == nil || c.ttl <= 0 {
		return nil, false
	}
	if c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.cohort, true
}

// Put stores a cohort and stamps its fetch time.
func (c *Cache) Put(cohort apidataset.Cohort) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cohort = cohort
	c.fetchedAt = c.now()
}

// Invalidate drops the cached cohort.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cohort = nil
}

// SourceConfig wires a dataset source.
type SourceConfig struct {
	Fetcher Fetcher
	Cache   *Cache
	Logger  *zap.Logger
}

// Source serves validated cohort snapshots, caching them per the configured
// TTL.
type Source struct {
	fetcher Fetcher
	cache   *Cache
	logger  *zap.Logger
}

// NewSource builds a dataset source.
func NewSource(cfg SourceConfig) (*Source, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Cache == nil {
		cfg.Cache = NewCache(0, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Source{fetcher: cfg.Fetcher, cache: cfg.Cache, logger: cfg.Logger}, nil
}

// Snapshot returns a validated cohort, served from cache while fresh. A
// snapshot violating the shape, the composite invariant, or the
// classification thresholds is rejected whole; the engine never sees a
// partially valid cohort.
func (s *Source) Snapshot(ctx context.Context) (apidataset.Cohort, error) {
	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}

	cohort, err := s.fetcher.FetchCohort(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch cohort: %w", err)
	}
	if err := gate(cohort); err != nil {
		s.logger.Warn("rejected cohort snapshot", zap.Error(err))
		return nil, err
	}

	s.cache.Put(cohort)
	s.logger.Info("cohort snapshot accepted", zap.Int("entities", len(cohort)))
	return cohort, nil
}

func gate(cohort apidataset.Cohort) error {
	if err := cohort.Validate(); err != nil {
		return fmt.Errorf("cohort shape: %w", err)
	}
	for _, profile := range cohort {
		if err := profile.CheckComposite(); err != nil {
			return fmt.Errorf("composite invariant: %w", err)
		}
		if profile.Classification != nil && profile.CompositeScore != nil {
			expected := apidataset.Classify(*profile.CompositeScore)
			if *profile.Classification != expected {
				return fmt.Errorf("entity %s: classification %q does not match composite %v (expected %q)",
					profile.Code, *profile.Classification, *profile.CompositeScore, expected)
			}
		}
	}
	return nil
}

// HTTPFetcher retrieves the cohort from a JSON endpoint serving
// {"entities": [...]}.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
}

// NewHTTPFetcher builds an HTTP cohort fetcher.
func NewHTTPFetcher(endpoint string, client *http.Client) (*HTTPFetcher, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("dataset endpoint is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{endpoint: endpoint, client: client}, nil
}

// FetchCohort performs one snapshot fetch.
func (f *HTTPFetcher) FetchCohort(ctx context.Context) (apidataset.Cohort, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("dataset endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read dataset response: %w", err)
	}
	var envelope struct {
		Entities apidataset.Cohort `json:"entities"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode dataset response: %w", err)
	}
	return envelope.Entities, nil
}
