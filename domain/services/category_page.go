package services

import (
	"dashboard/domain/config"
	"dashboard/domain/core/entities"
)

// SEO carries the page's document title and meta description
type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Breadcrumb is one entry of the page trail
type Breadcrumb struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// CategoryView is the render model of a category page
type CategoryView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	LearnMore   string         `json:"learnMore,omitempty"`
	IsBeta      bool           `json:"isBeta,omitempty"`
	SEO         SEO            `json:"seo"`
	Breadcrumbs []Breadcrumb   `json:"breadcrumbs"`
	Cards       []ContractCard `json:"cards"`
}

// BuildCategoryView assembles the render model of a category page
func BuildCategoryView(category *entities.Category, cfg *config.DomainConfig) (*CategoryView, error) {
	cards, err := NormalizeCategory(category)
	if err != nil {
		return nil, err
	}

	return &CategoryView{
		ID:          category.ID(),
		Name:        category.Name(),
		Title:       category.Title(),
		Description: category.Description(),
		LearnMore:   category.LearnMore(),
		IsBeta:      category.IsBeta(),
		SEO: SEO{
			Title:       category.Name() + cfg.SEOTitleSuffix,
			Description: category.Description() + cfg.SEODescriptionSuffix,
		},
		Breadcrumbs: []Breadcrumb{
			{Label: cfg.ExploreLabel, Href: cfg.ExploreBasePath},
			{Label: category.Title(), Href: cfg.ExploreBasePath + "/" + category.ID()},
		},
		Cards: cards,
	}, nil
}
