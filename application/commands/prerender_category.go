package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard/application/commands/bus"
	"dashboard/application/ports"
	"dashboard/application/queries"
	querybus "dashboard/application/queries/bus"
	"dashboard/application/services"
	"dashboard/domain/events"
	pkgerrors "dashboard/pkg/errors"

	"go.uber.org/zap"
)

// Prerender triggers
const (
	TriggerBuild      = "build"
	TriggerSchedule   = "schedule"
	TriggerRevalidate = "revalidate"
	TriggerOnDemand   = "on_demand"
)

// PrerenderCategoryCommand regenerates and stores the snapshot of one category
type PrerenderCategoryCommand struct {
	CategoryID string `json:"category_id" validate:"required"`
	Trigger    string `json:"trigger" validate:"required,oneof=build schedule revalidate on_demand"`
	Owner      string `json:"owner"`
}

// Validate validates the command
func (cmd PrerenderCategoryCommand) Validate() error {
	if cmd.CategoryID == "" {
		return pkgerrors.NewValidationError("category ID is required")
	}
	switch cmd.Trigger {
	case TriggerBuild, TriggerSchedule, TriggerRevalidate, TriggerOnDemand:
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown trigger %q", cmd.Trigger))
	}
	return nil
}

// PrerenderCategoryHandler handles the PrerenderCategoryCommand
type PrerenderCategoryHandler struct {
	loader    *services.CategoryLoader
	store     ports.SnapshotStore
	locker    ports.Locker
	publisher ports.EventPublisher
	cache     ports.Cache
	lockTTL   time.Duration
	poll      time.Duration
	logger    *zap.Logger
}

// NewPrerenderCategoryHandler creates a new handler instance
func NewPrerenderCategoryHandler(
	loader *services.CategoryLoader,
	store ports.SnapshotStore,
	locker ports.Locker,
	publisher ports.EventPublisher,
	cache ports.Cache,
	lockTTL time.Duration,
	logger *zap.Logger,
) *PrerenderCategoryHandler {
	return &PrerenderCategoryHandler{
		loader:    loader,
		store:     store,
		locker:    locker,
		publisher: publisher,
		cache:     cache,
		lockTTL:   lockTTL,
		poll:      100 * time.Millisecond,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler
func (h *PrerenderCategoryHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(PrerenderCategoryCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", cmd)
	}
	_, err := h.Generate(ctx, c.CategoryID, c.Trigger, c.Owner)
	return err
}

// Generate loads, stores and announces a fresh snapshot of a category.
// Concurrent generations of one category are rejected with a Conflict error,
// except on demand where the caller waits for the running generation instead.
func (h *PrerenderCategoryHandler) Generate(ctx context.Context, categoryID, trigger, owner string) (*ports.CategorySnapshot, error) {
	if owner == "" {
		owner = trigger
	}
	if !h.loader.Known(categoryID) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("category %q", categoryID))
	}

	var (
		lock   ports.Lock
		waited bool
	)
	for {
		var err error
		lock, err = h.locker.Acquire(ctx, "prerender#"+categoryID, owner, h.lockTTL)
		if err == nil {
			break
		}
		if trigger != TriggerOnDemand || !pkgerrors.IsConflict(err) {
			return nil, err
		}
		waited = true

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.poll):
		}
		stored, err := h.store.Get(ctx, categoryID)
		if err == nil {
			return stored, nil
		}
		if !pkgerrors.IsNotFound(err) {
			return nil, err
		}
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn("Failed to release prerender lock", zap.String("category", categoryID), zap.Error(err))
		}
	}()

	// The previous holder may have saved between our last read and its release.
	if waited {
		if stored, err := h.store.Get(ctx, categoryID); err == nil {
			return stored, nil
		}
	}

	snapshot, err := h.loader.Load(ctx, categoryID, trigger)
	if err == nil {
		err = h.store.Save(ctx, snapshot)
	}
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			h.announce(ctx, events.NewCategoryPrerenderFailed(categoryID, err.Error(), trigger, time.Now().UTC()))
		}
		return nil, err
	}

	_ = h.cache.Delete(ctx, querybus.CacheKey(queries.GetCategoryPageQuery{CategoryID: categoryID}))
	h.announce(ctx, events.NewCategoryPrerendered(
		categoryID,
		snapshot.Version,
		len(snapshot.State.Queries),
		snapshot.Failed,
		trigger,
		snapshot.GeneratedAt,
	))
	return snapshot, nil
}

// announce publishes an event; delivery failures never fail the prerender
func (h *PrerenderCategoryHandler) announce(ctx context.Context, event events.DomainEvent) {
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("category", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// PrerenderAllCommand regenerates every category
type PrerenderAllCommand struct {
	Trigger string `json:"trigger" validate:"required,oneof=build schedule"`
}

// Validate validates the command
func (cmd PrerenderAllCommand) Validate() error {
	switch cmd.Trigger {
	case TriggerBuild, TriggerSchedule:
		return nil
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown trigger %q", cmd.Trigger))
	}
}

// PrerenderAllHandler handles the PrerenderAllCommand
type PrerenderAllHandler struct {
	loader   *services.CategoryLoader
	category *PrerenderCategoryHandler
	logger   *zap.Logger
}

// NewPrerenderAllHandler creates a new handler instance
func NewPrerenderAllHandler(loader *services.CategoryLoader, category *PrerenderCategoryHandler, logger *zap.Logger) *PrerenderAllHandler {
	return &PrerenderAllHandler{loader: loader, category: category, logger: logger}
}

// Handle regenerates categories one by one, continuing past failures
func (h *PrerenderAllHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(PrerenderAllCommand)
	if !ok {
		return fmt.Errorf("unexpected command %T", cmd)
	}

	var errs []error
	paths := h.loader.Paths()
	for _, id := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := h.category.Generate(ctx, id, c.Trigger, ""); err != nil {
			h.logger.Error("Prerender failed", zap.String("category", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("category %s: %w", id, err))
		}
	}

	h.logger.Info("Prerender finished",
		zap.Int("categories", len(paths)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}
