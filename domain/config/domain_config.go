package config

import (
	"errors"
	"time"
)

// DomainConfig holds the configurable business rules for the explore pages
// and the contract overview panels
type DomainConfig struct {
	// NFT details panel
	NFTPreviewCount     int
	NarrowViewportLimit int
	WideViewportLimit   int
	IncludeOwners       bool
	SupplyFeatures      []string
	NFTsTab             string
	ViewAllLabel        string
	PanelHeading        string

	// Category pages
	MaxContractsPerCategory int
	SEOTitleSuffix          string
	SEODescriptionSuffix    string
	ExploreBasePath         string
	ExploreLabel            string

	// Prefetch
	PrefetchConcurrency int
	PrefetchTimeout     time.Duration

	// Token queries
	TokenQueryStaleAfter time.Duration
	TokenQueryTimeout    time.Duration
}

// DefaultSupplyFeatures are the contract capabilities that make supply figures relevant
var DefaultSupplyFeatures = []string{
	"ERC721ClaimPhasesV1",
	"ERC721ClaimPhasesV2",
	"ERC721ClaimConditionsV1",
	"ERC721ClaimConditionsV2",
	"ERC721ClaimCustom",
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		NFTPreviewCount:     5,
		NarrowViewportLimit: 2,
		WideViewportLimit:   3,
		IncludeOwners:       true,
		SupplyFeatures:      append([]string(nil), DefaultSupplyFeatures...),
		NFTsTab:             "nfts",
		ViewAllLabel:        "view_all_nfts",
		PanelHeading:        "NFT Details",

		MaxContractsPerCategory: 60,
		SEOTitleSuffix:          " Smart Contracts | Explore",
		SEODescriptionSuffix:    " Deploy with one click to Ethereum, Polygon, Optimism, and other EVM blockchains with thirdweb.",
		ExploreBasePath:         "/explore",
		ExploreLabel:            "Explore",

		PrefetchConcurrency: 8,
		PrefetchTimeout:     20 * time.Second,

		TokenQueryStaleAfter: 30 * time.Second,
		TokenQueryTimeout:    15 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.TokenQueryStaleAfter = 2 * time.Minute
	cfg.PrefetchConcurrency = 16
	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.TokenQueryStaleAfter = 5 * time.Second
	cfg.PrefetchConcurrency = 4
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// PreviewLimit returns how many cards a viewport shows
func (c *DomainConfig) PreviewLimit(narrow bool) int {
	if narrow {
		return c.NarrowViewportLimit
	}
	return c.WideViewportLimit
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.NFTPreviewCount <= 0 {
		return errors.New("NFTPreviewCount must be positive")
	}
	if c.NarrowViewportLimit <= 0 || c.WideViewportLimit <= 0 {
		return errors.New("viewport limits must be positive")
	}
	if c.NarrowViewportLimit > c.NFTPreviewCount || c.WideViewportLimit > c.NFTPreviewCount {
		return errors.New("viewport limits cannot exceed NFTPreviewCount")
	}
	if c.PrefetchConcurrency <= 0 {
		return errors.New("PrefetchConcurrency must be positive")
	}
	return nil
}
