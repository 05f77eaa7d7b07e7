package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageQuery struct{ ID string }

func (q pageQuery) Validate() error {
	if q.ID == "" {
		return errors.New("id required")
	}
	return nil
}

func (q pageQuery) CacheKey() string { return q.ID }

type mapCache map[string]interface{}

func (c mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c[key] = value
	return nil
}

type countingMetrics map[string]int

func (m countingMetrics) Increment(metric, label string)               { m[metric+"/"+label]++ }
func (m countingMetrics) Timing(metric, label string, _ time.Duration) { m[metric+"/"+label]++ }

func TestQueryBus_AskThroughMiddlewares(t *testing.T) {
	cache := mapCache{}
	metrics := countingMetrics{}
	calls := 0

	b := NewQueryBus(MetricsMiddleware(metrics), CachingMiddleware(cache, 60))
	require.NoError(t, b.Register(pageQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return "page " + q.(pageQuery).ID, nil
	})))

	for i := 0; i < 2; i++ {
		out, err := b.Ask(context.Background(), pageQuery{ID: "nft"})
		require.NoError(t, err)
		assert.Equal(t, "page nft", out)
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, metrics["query_count/pageQuery"])
	assert.Contains(t, cache, CacheKey(pageQuery{ID: "nft"}))
}

func TestQueryBus_Errors(t *testing.T) {
	b := NewQueryBus()
	_, err := b.Ask(context.Background(), pageQuery{})
	assert.EqualError(t, err, "id required")

	_, err = b.Ask(context.Background(), pageQuery{ID: "x"})
	assert.Error(t, err)

	handler := QueryHandlerFunc(func(context.Context, Query) (interface{}, error) { return nil, nil })
	require.NoError(t, b.Register(pageQuery{}, handler))
	assert.Error(t, b.Register(pageQuery{}, handler))
}
