package services

import (
	"strconv"
	"strings"

	"dashboard/domain/core/valueobjects"
)

// Navigator resolves logical tab names of a contract page to paths
type Navigator struct {
	slugs map[uint64]string
}

// NewNavigator creates a Navigator. Chains without a slug use their decimal id.
func NewNavigator(slugs map[uint64]string) *Navigator {
	copied := make(map[uint64]string, len(slugs))
	for id, slug := range slugs {
		copied[id] = slug
	}
	return &Navigator{slugs: copied}
}

// ChainSlug returns the path segment of a chain
func (n *Navigator) ChainSlug(chainID uint64) string {
	if slug, ok := n.slugs[chainID]; ok && slug != "" {
		return slug
	}
	return strconv.FormatUint(chainID, 10)
}

// TabHref returns /{chainSlug}/{address}/{tab}; an empty tab yields the overview path
func (n *Navigator) TabHref(handle valueobjects.ContractHandle, tab string) string {
	parts := []string{"", n.ChainSlug(handle.ChainID()), handle.Address().Hex()}
	if tab = strings.Trim(tab, "/"); tab != "" {
		parts = append(parts, tab)
	}
	return strings.Join(parts, "/")
}
