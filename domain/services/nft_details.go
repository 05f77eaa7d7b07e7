package services

import (
	"math/big"

	"dashboard/domain/config"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
)

// NFTDetailsInput is everything the panel decision depends on
type NFTDetailsInput struct {
	Handle           valueobjects.ContractHandle
	Features         []string
	Viewport         valueobjects.Viewport
	Tokens           []entities.Token
	Status           valueobjects.FetchStatus
	Supply           *entities.SupplySummary
	TrackingCategory string
}

// PanelLink is the panel's "view all" navigation
type PanelLink struct {
	Label            string `json:"label"`
	Href             string `json:"href"`
	TrackingLabel    string `json:"trackingLabel"`
	TrackingCategory string `json:"trackingCategory,omitempty"`
}

// SupplyView is the supply summary as decimal strings
type SupplyView struct {
	Total     string `json:"total"`
	Claimed   string `json:"claimed"`
	Unclaimed string `json:"unclaimed"`
}

// NFTDetailsView is the render model of the NFT details panel
type NFTDetailsView struct {
	Visible     bool                     `json:"visible"`
	Heading     string                   `json:"heading,omitempty"`
	ViewAll     *PanelLink               `json:"viewAll,omitempty"`
	ShowSupply  bool                     `json:"showSupply"`
	Supply      *SupplyView              `json:"supply,omitempty"`
	Cards       []entities.Token         `json:"cards"`
	IsLoading   bool                     `json:"isLoading"`
	FetchStatus valueobjects.FetchStatus `json:"fetchStatus"`
}

// ShowsSupply reports whether any feature is in the supply allow-list
func ShowsSupply(features, allowList []string) bool {
	allowed := make(map[string]struct{}, len(allowList))
	for _, f := range allowList {
		allowed[f] = struct{}{}
	}
	for _, f := range features {
		if _, ok := allowed[f]; ok {
			return true
		}
	}
	return false
}

// DisplayableTokens keeps tokens with an image or animation, in order
func DisplayableTokens(tokens []entities.Token) []entities.Token {
	out := make([]entities.Token, 0, len(tokens))
	for _, token := range tokens {
		if token.HasDisplayableAsset() {
			out = append(out, token)
		}
	}
	return out
}

// NFTDetailsPanel decides what the NFT details panel shows
type NFTDetailsPanel struct {
	cfg       *config.DomainConfig
	navigator *Navigator
}

// NewNFTDetailsPanel creates the panel service
func NewNFTDetailsPanel(cfg *config.DomainConfig, navigator *Navigator) *NFTDetailsPanel {
	return &NFTDetailsPanel{cfg: cfg, navigator: navigator}
}

// Build produces the panel view. A failed read renders like an empty one.
func (p *NFTDetailsPanel) Build(in NFTDetailsInput) NFTDetailsView {
	showSupply := ShowsSupply(in.Features, p.cfg.SupplyFeatures)
	pending := in.Status.IsPending()

	cards := DisplayableTokens(in.Tokens)
	if limit := p.cfg.PreviewLimit(in.Viewport.IsNarrow()); len(cards) > limit {
		cards = cards[:limit]
	}

	view := NFTDetailsView{
		ShowSupply:  showSupply,
		Cards:       cards,
		IsLoading:   pending,
		FetchStatus: in.Status,
	}
	if len(cards) == 0 && !showSupply && !pending {
		return view
	}

	view.Visible = true
	view.Heading = p.cfg.PanelHeading
	view.ViewAll = &PanelLink{
		Label:            "View all",
		Href:             p.navigator.TabHref(in.Handle, p.cfg.NFTsTab),
		TrackingLabel:    p.cfg.ViewAllLabel,
		TrackingCategory: in.TrackingCategory,
	}
	if showSupply && in.Supply != nil {
		view.Supply = &SupplyView{
			Total:     bigString(in.Supply.Total),
			Claimed:   bigString(in.Supply.Claimed),
			Unclaimed: in.Supply.Unclaimed().String(),
		}
	}
	return view
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
