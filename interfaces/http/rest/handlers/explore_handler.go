package handlers

import (
	"fmt"
	"net/http"
	"time"

	"dashboard/application/commands"
	"dashboard/application/commands/bus"
	"dashboard/application/queries"
	querybus "dashboard/application/queries/bus"
	"dashboard/pkg/auth"
	"dashboard/pkg/common"
	pkgerrors "dashboard/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PageObserver records where served category pages came from
type PageObserver interface {
	ObservePage(source string)
}

// ExploreHandler serves the explore category pages
type ExploreHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	observer   PageObserver
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewExploreHandler creates a new explore handler. cacheTTL sets the shared
// cache lifetime advertised on page responses.
func NewExploreHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errors *pkgerrors.ErrorHandler,
	observer PageObserver,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ExploreHandler {
	return &ExploreHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errors,
		observer:   observer,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// RevalidateResponse reports the snapshot a revalidation produced
type RevalidateResponse struct {
	Category    string `json:"category"`
	Version     string `json:"version"`
	GeneratedAt string `json:"generatedAt"`
}

// ListCategories handles GET /explore/categories
func (h *ExploreHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListCategoryPathsQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetCategory handles GET /explore/categories/{category}
func (h *ExploreHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	query := queries.GetCategoryPageQuery{CategoryID: chi.URLParam(r, "category")}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	page, err := pageOf(result)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.observer.ObservePage(page.Source)

	if h.cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(h.cacheTTL.Seconds())))
	}
	common.RespondWithMeta(w, http.StatusOK, page, h.meta(r, page))
}

// Revalidate handles POST /explore/categories/{category}/revalidate
func (h *ExploreHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category")

	owner := commands.TriggerRevalidate
	if user, err := auth.GetUserFromContext(r.Context()); err == nil {
		owner = user.UserID
	}

	cmd := commands.PrerenderCategoryCommand{
		CategoryID: categoryID,
		Trigger:    commands.TriggerRevalidate,
		Owner:      owner,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetCategoryPageQuery{CategoryID: categoryID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	page, err := pageOf(result)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Category revalidated",
		zap.String("category", categoryID),
		zap.String("version", page.Version),
		zap.String("owner", owner),
	)
	common.RespondJSON(w, http.StatusOK, RevalidateResponse{
		Category:    categoryID,
		Version:     page.Version,
		GeneratedAt: common.FormatTimestamp(page.GeneratedAt),
	})
}

func pageOf(result interface{}) (*queries.GetCategoryPageResult, error) {
	page, ok := result.(*queries.GetCategoryPageResult)
	if !ok || page == nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected page result %T", result))
	}
	return page, nil
}

func (h *ExploreHandler) meta(r *http.Request, page *queries.GetCategoryPageResult) *common.MetaInfo {
	requestID, _ := common.GetRequestID(r.Context())
	return &common.MetaInfo{
		RequestID:   requestID,
		GeneratedAt: common.FormatTimestamp(page.GeneratedAt),
		Version:     page.Version,
		Source:      page.Source,
	}
}
