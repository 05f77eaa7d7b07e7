package handlers

import (
	"context"
	"fmt"

	"dashboard/application/commands"
	"dashboard/application/ports"
	"dashboard/application/queries"
	"dashboard/application/queries/bus"
	"dashboard/domain/config"
	"dashboard/domain/core/entities"
	domainservices "dashboard/domain/services"
	pkgerrors "dashboard/pkg/errors"

	"go.uber.org/zap"
)

// SnapshotGenerator produces a snapshot when none is stored
type SnapshotGenerator interface {
	Generate(ctx context.Context, categoryID, trigger, owner string) (*ports.CategorySnapshot, error)
}

// GetCategoryPageHandler serves category pages from stored snapshots
type GetCategoryPageHandler struct {
	registry         ports.CategoryRegistry
	store            ports.SnapshotStore
	generator        SnapshotGenerator
	revalidateOnMiss bool
	cfg              *config.DomainConfig
	logger           *zap.Logger
}

// NewGetCategoryPageHandler creates a new category page handler
func NewGetCategoryPageHandler(
	registry ports.CategoryRegistry,
	store ports.SnapshotStore,
	generator SnapshotGenerator,
	revalidateOnMiss bool,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *GetCategoryPageHandler {
	return &GetCategoryPageHandler{
		registry:         registry,
		store:            store,
		generator:        generator,
		revalidateOnMiss: revalidateOnMiss,
		cfg:              cfg,
		logger:           logger,
	}
}

// Handle executes the category page query
func (h *GetCategoryPageHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetCategoryPageQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query %T", query)
	}

	if _, known := h.registry.Get(q.CategoryID); !known {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("category %q", q.CategoryID))
	}

	source := queries.SourceSnapshot
	snapshot, err := h.store.Get(ctx, q.CategoryID)
	if pkgerrors.IsNotFound(err) {
		if !h.revalidateOnMiss {
			return nil, pkgerrors.NewUnavailableError("category snapshot").
				WithDetails(map[string]interface{}{"category": q.CategoryID})
		}
		h.logger.Info("Generating missing category snapshot", zap.String("category", q.CategoryID))
		source = queries.SourceGenerated
		snapshot, err = h.generator.Generate(ctx, q.CategoryID, commands.TriggerOnDemand, "")
	}
	if err != nil {
		return nil, err
	}

	category, err := entities.NewCategory(snapshot.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored snapshot is invalid")
	}
	view, err := domainservices.BuildCategoryView(category, h.cfg)
	if err != nil {
		return nil, err
	}

	return &queries.GetCategoryPageResult{
		Page:            view,
		DehydratedState: snapshot.State,
		Version:         snapshot.Version,
		GeneratedAt:     snapshot.GeneratedAt,
		Source:          source,
	}, nil
}
