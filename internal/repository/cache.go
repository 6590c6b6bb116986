package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tienda/internal/domain"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for caching operations.
// Implemented in memory for single-process use and by Redis when configured.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// CacheKey generates cache keys.
type CacheKey struct{}

// CatalogItem returns the cache key for a catalog item.
func (CacheKey) CatalogItem(id int64) string {
	return "cache:catalog:item:" + strconv.FormatInt(id, 10)
}

// CatalogList returns the cache key for the full catalog listing.
func (CacheKey) CatalogList() string {
	return "cache:catalog:list"
}

// =============================================================================
// Cached Catalog
// =============================================================================

// CachedCatalogRepository is a read-through cache in front of a CatalogRepository.
// Entries may be stale for up to the TTL, so it serves display reads only.
// Order placement must read the item from the store.
// Cache failures are logged and fall back to the store.
type CachedCatalogRepository struct {
	next   CatalogRepository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedCatalogRepository wraps next with cache.
func NewCachedCatalogRepository(next CatalogRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedCatalogRepository {
	return &CachedCatalogRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog_cache").Logger(),
	}
}

// GetByID returns the cached item or loads it from the store.
// Not-found results are not cached.
func (r *CachedCatalogRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	key := CacheKey{}.CatalogItem(id)

	var cached domain.CatalogItem
	if r.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	item, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, item)
	return item, nil
}

// List returns the cached listing or loads it from the store.
func (r *CachedCatalogRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	key := CacheKey{}.CatalogList()

	var cached []*domain.CatalogItem
	if r.lookup(ctx, key, &cached) {
		return cached, nil
	}

	items, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, items)
	return items, nil
}

// lookup decodes the entry at key into dst and reports whether it did.
// Undecodable entries are deleted.
func (r *CachedCatalogRepository) lookup(ctx context.Context, key string, dst any) bool {
	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, dst); jsonErr == nil {
			return true
		}
		r.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		_ = r.cache.Delete(ctx, key)
	case !errors.Is(err, ErrCacheMiss):
		r.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}
	return false
}

func (r *CachedCatalogRepository) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

// Ensure CachedCatalogRepository implements CatalogRepository.
var _ CatalogRepository = (*CachedCatalogRepository)(nil)
