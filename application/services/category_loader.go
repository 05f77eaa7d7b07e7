package services

import (
	"context"
	"fmt"
	"time"

	"dashboard/application/hydration"
	"dashboard/application/ports"
	"dashboard/domain/config"
	domainservices "dashboard/domain/services"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CategoryLoader resolves a category against the registry and prefetches the
// data its page needs into a serialized query cache
type CategoryLoader struct {
	registry  ports.CategoryRegistry
	contracts ports.ContractRegistry
	cfg       *config.DomainConfig
	tracer    *observability.Tracer
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewCategoryLoader creates a new category loader
func NewCategoryLoader(
	registry ports.CategoryRegistry,
	contracts ports.ContractRegistry,
	cfg *config.DomainConfig,
	tracer *observability.Tracer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CategoryLoader {
	return &CategoryLoader{
		registry:  registry,
		contracts: contracts,
		cfg:       cfg,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Paths enumerates every category id that has a page
func (l *CategoryLoader) Paths() []string {
	return l.registry.IDs()
}

// Known reports whether the registry has a category with this id
func (l *CategoryLoader) Known(categoryID string) bool {
	_, ok := l.registry.Get(categoryID)
	return ok
}

// Load builds the snapshot of one category. Unknown ids fail with a NotFound
// error before any data is fetched. Individual prefetch failures are logged
// and left out of the snapshot.
func (l *CategoryLoader) Load(ctx context.Context, categoryID, trigger string) (*ports.CategorySnapshot, error) {
	category, ok := l.registry.Get(categoryID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("category %q", categoryID))
	}

	cards, err := domainservices.NormalizeCategory(category)
	if err != nil {
		return nil, err
	}

	start := l.now()
	client := hydration.NewQueryClient()

	err = l.tracer.TraceFunction(ctx, "explore.prefetch", func(ctx context.Context) error {
		l.tracer.AddAnnotation(ctx, "category", categoryID)
		l.prefetch(ctx, client, cards)
		return nil
	})
	if err != nil {
		return nil, err
	}

	state, err := client.Dehydrate()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to dehydrate category queries").WithCause(err)
	}

	succeeded, failed := client.Stats()
	elapsed := l.now().Sub(start)
	l.metrics.Timing("category_load_duration", categoryID, elapsed)
	if failed > 0 {
		l.metrics.Increment("prefetch_failures", categoryID)
	}

	l.logger.Info("Category loaded",
		zap.String("category", categoryID),
		zap.String("trigger", trigger),
		zap.Int("queries", succeeded),
		zap.Int("failedQueries", failed),
		zap.Duration("duration", elapsed),
	)

	return &ports.CategorySnapshot{
		Category:    category.Document(),
		State:       state,
		Version:     uuid.NewString(),
		GeneratedAt: l.now().UTC(),
		Trigger:     trigger,
		Failed:      failed,
	}, nil
}

// prefetch fans out one query per distinct contract, module and publisher
func (l *CategoryLoader) prefetch(ctx context.Context, client *hydration.QueryClient, cards []domainservices.ContractCard) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.PrefetchTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(l.cfg.PrefetchConcurrency)

	seen := make(map[string]struct{})
	schedule := func(key hydration.QueryKey, fn hydration.QueryFunc) {
		hash := key.Hash()
		if _, dup := seen[hash]; dup {
			return
		}
		seen[hash] = struct{}{}

		g.Go(func() error {
			if _, err := client.Fetch(ctx, key, fn); err != nil {
				l.logger.Warn("Prefetch failed",
					zap.String("query", hash),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	contract := func(publisher, id string) hydration.QueryFunc {
		return func(ctx context.Context) (interface{}, error) {
			return l.contracts.GetPublishedContract(ctx, publisher, id)
		}
	}
	profile := func(publisher string) hydration.QueryFunc {
		return func(ctx context.Context) (interface{}, error) {
			return l.contracts.GetPublisherProfile(ctx, publisher)
		}
	}

	for _, card := range cards {
		schedule(hydration.PublishedContractKey(card.Publisher, card.ContractID), contract(card.Publisher, card.ContractID))
		schedule(hydration.PublisherProfileKey(card.Publisher), profile(card.Publisher))
		for _, module := range card.Modules {
			schedule(hydration.PublishedContractKey(module.Publisher, module.ModuleID), contract(module.Publisher, module.ModuleID))
			schedule(hydration.PublisherProfileKey(module.Publisher), profile(module.Publisher))
		}
	}

	_ = g.Wait()
}
