package queries

// ListCategoryPathsQuery enumerates every category page path
type ListCategoryPathsQuery struct{}

// Validate validates the ListCategoryPathsQuery
func (q ListCategoryPathsQuery) Validate() error {
	return nil
}

// CategoryPath is one pre-generated page
type CategoryPath struct {
	Category string `json:"category"`
}

// ListCategoryPathsResult lists the page paths
type ListCategoryPathsResult struct {
	Paths []CategoryPath `json:"paths"`
}
