package di

import (
	"context"
	"time"

	"dashboard/application/commands/bus"
	querybus "dashboard/application/queries/bus"
	"dashboard/application/services"
	"dashboard/infrastructure/cache"
	"dashboard/infrastructure/chain"
	"dashboard/infrastructure/config"
	"dashboard/interfaces/http/rest"
	"dashboard/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Router       *rest.Router
	Cache        *cache.InMemoryCache
	Metrics      *observability.Metrics
	TokenQueries *services.TokenQueries
	Chains       *chain.ClientPool
}

// Background intervals of the long running workers
const (
	metricsFlushInterval = time.Minute
	cacheEvictInterval   = time.Minute
	tokenPruneInterval   = 5 * time.Minute
)

// RunBackground starts the cache sweeper, the token query pruner and the
// metrics flusher. They stop when ctx is done.
func (c *Container) RunBackground(ctx context.Context) {
	go c.Cache.Run(ctx, cacheEvictInterval)
	go c.TokenQueries.Run(ctx, tokenPruneInterval)
	go c.Metrics.Run(ctx, metricsFlushInterval)
}

// Close flushes buffered metrics and releases chain connections
func (c *Container) Close(ctx context.Context) {
	if err := c.Metrics.Flush(ctx); err != nil {
		c.Logger.Warn("Failed to flush metrics", zap.Error(err))
	}
	c.Chains.Close()
	_ = c.Logger.Sync()
}
