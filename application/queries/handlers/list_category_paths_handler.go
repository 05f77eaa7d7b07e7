package handlers

import (
	"context"

	"dashboard/application/ports"
	"dashboard/application/queries"
	"dashboard/application/queries/bus"
)

// ListCategoryPathsHandler enumerates category pages
type ListCategoryPathsHandler struct {
	registry ports.CategoryRegistry
}

// NewListCategoryPathsHandler creates a new path listing handler
func NewListCategoryPathsHandler(registry ports.CategoryRegistry) *ListCategoryPathsHandler {
	return &ListCategoryPathsHandler{registry: registry}
}

// Handle executes the path listing query
func (h *ListCategoryPathsHandler) Handle(ctx context.Context, _ bus.Query) (interface{}, error) {
	ids := h.registry.IDs()
	result := &queries.ListCategoryPathsResult{Paths: make([]queries.CategoryPath, 0, len(ids))}
	for _, id := range ids {
		result.Paths = append(result.Paths, queries.CategoryPath{Category: id})
	}
	return result, nil
}
