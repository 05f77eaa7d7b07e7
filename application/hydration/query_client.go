package hydration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// QueryKey identifies a cached query, e.g. ["publishedContract", "thirdweb.eth", "DropERC721"]
type QueryKey []string

// Hash returns the stable string form of the key
func (k QueryKey) Hash() string {
	data, _ := json.Marshal([]string(k))
	return string(data)
}

// QueryFunc produces the data of one query
type QueryFunc func(ctx context.Context) (interface{}, error)

type queryEntry struct {
	key       QueryKey
	data      interface{}
	err       error
	updatedAt time.Time
	done      chan struct{}
}

// QueryClient is a request-scoped query cache. Each key is fetched at most
// once; concurrent callers of the same key share the in-flight fetch.
type QueryClient struct {
	mu      sync.Mutex
	queries map[string]*queryEntry
	now     func() time.Time
}

// NewQueryClient creates an empty query cache
func NewQueryClient() *QueryClient {
	return &QueryClient{
		queries: make(map[string]*queryEntry),
		now:     time.Now,
	}
}

// Fetch returns the cached result for key, running fn if the key is unknown
func (c *QueryClient) Fetch(ctx context.Context, key QueryKey, fn QueryFunc) (interface{}, error) {
	hash := key.Hash()

	c.mu.Lock()
	entry, exists := c.queries[hash]
	if !exists {
		entry = &queryEntry{key: append(QueryKey(nil), key...), done: make(chan struct{})}
		c.queries[hash] = entry
	}
	c.mu.Unlock()

	if exists {
		select {
		case <-entry.done:
			return entry.data, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	data, err := fn(ctx)

	c.mu.Lock()
	entry.data, entry.err = data, err
	entry.updatedAt = c.now()
	c.mu.Unlock()
	close(entry.done)

	return data, err
}

// Stats counts settled queries by outcome
func (c *QueryClient) Stats() (succeeded, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.queries {
		select {
		case <-entry.done:
		default:
			continue
		}
		if entry.err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

// Dehydrate serializes every successful query, ordered by hash.
// Pending and failed queries are left out.
func (c *QueryClient) Dehydrate() (DehydratedState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := DehydratedState{Queries: make([]DehydratedQuery, 0, len(c.queries))}
	for hash, entry := range c.queries {
		select {
		case <-entry.done:
		default:
			continue
		}
		if entry.err != nil {
			continue
		}

		data, err := json.Marshal(entry.data)
		if err != nil {
			return DehydratedState{}, fmt.Errorf("failed to serialize query %s: %w", hash, err)
		}
		state.Queries = append(state.Queries, DehydratedQuery{
			QueryKey:  entry.key,
			QueryHash: hash,
			State: QueryState{
				Data:          data,
				DataUpdatedAt: entry.updatedAt.UnixMilli(),
				Status:        StatusSuccess,
			},
		})
	}

	sort.Slice(state.Queries, func(i, j int) bool {
		return state.Queries[i].QueryHash < state.Queries[j].QueryHash
	})
	return state, nil
}
