package publisher

import (
	"context"

	"dashboard/application/ports"
)

// CachedRegistry memoizes registry reads for ttl seconds. Misses and errors are not cached.
type CachedRegistry struct {
	next  ports.ContractRegistry
	cache ports.Cache
	ttl   int
}

// NewCachedRegistry wraps next with cache
func NewCachedRegistry(next ports.ContractRegistry, cache ports.Cache, ttl int) *CachedRegistry {
	return &CachedRegistry{next: next, cache: cache, ttl: ttl}
}

// GetPublishedContract implements ports.ContractRegistry
func (r *CachedRegistry) GetPublishedContract(ctx context.Context, publisher, contractID string) (*ports.PublishedContract, error) {
	key := "registry:contract:" + publisher + "/" + contractID
	if v, ok := r.cache.Get(ctx, key); ok {
		if c, ok := v.(*ports.PublishedContract); ok {
			return c, nil
		}
	}

	c, err := r.next.GetPublishedContract(ctx, publisher, contractID)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, c, r.ttl)
	return c, nil
}

// GetPublisherProfile implements ports.ContractRegistry
func (r *CachedRegistry) GetPublisherProfile(ctx context.Context, publisher string) (*ports.PublisherProfile, error) {
	key := "registry:publisher:" + publisher
	if v, ok := r.cache.Get(ctx, key); ok {
		if p, ok := v.(*ports.PublisherProfile); ok {
			return p, nil
		}
	}

	p, err := r.next.GetPublisherProfile(ctx, publisher)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, p, r.ttl)
	return p, nil
}
