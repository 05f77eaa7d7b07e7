package queries

import (
	"time"

	"dashboard/application/hydration"
	domainservices "dashboard/domain/services"
	pkgerrors "dashboard/pkg/errors"
)

// Page sources
const (
	SourceSnapshot  = "snapshot"
	SourceGenerated = "generated"
)

// GetCategoryPageQuery requests the render model of a category page
type GetCategoryPageQuery struct {
	CategoryID string
}

// Validate validates the GetCategoryPageQuery
func (q GetCategoryPageQuery) Validate() error {
	if q.CategoryID == "" {
		return pkgerrors.NewValidationError("category ID is required")
	}
	return nil
}

// CacheKey implements bus.Cacheable
func (q GetCategoryPageQuery) CacheKey() string {
	return q.CategoryID
}

// GetCategoryPageResult is a category page plus the snapshot it hydrates from
type GetCategoryPageResult struct {
	Page            *domainservices.CategoryView `json:"page"`
	DehydratedState hydration.DehydratedState    `json:"dehydratedState"`
	Version         string                       `json:"version"`
	GeneratedAt     time.Time                    `json:"generatedAt"`
	Source          string                       `json:"-"`
}
