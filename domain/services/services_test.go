package services

import (
	"fmt"
	"math/big"
	"testing"

	"dashboard/domain/config"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	pkgerrors "dashboard/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeContractRef_SplitsPublisherAndContract(t *testing.T) {
	refs := []valueobjects.ContractRef{
		valueobjects.SimpleContractRef{ID: "pub/id"},
		valueobjects.ExtendedContractRef{ID: "pub/id"},
		valueobjects.ExtendedContractRef{ID: "pub/id", Modules: []string{}},
	}
	for _, ref := range refs {
		card, err := NormalizeContractRef(ref)
		require.NoError(t, err)
		assert.Equal(t, "pub", card.Publisher)
		assert.Equal(t, "id", card.ContractID)
		assert.Nil(t, card.Modules)
	}
}

func TestNormalizeContractRef_ModulesInOrder(t *testing.T) {
	card, err := NormalizeContractRef(valueobjects.ExtendedContractRef{
		ID:      "pub/id",
		Modules: []string{"pub1/mod1", "pub2/mod2"},
		Overrides: &valueobjects.ContractOverrides{
			Title:       "Custom",
			Description: "Custom description",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []ModuleCard{
		{Publisher: "pub1", ModuleID: "mod1"},
		{Publisher: "pub2", ModuleID: "mod2"},
	}, card.Modules)
	assert.Equal(t, "Custom", card.TitleOverride)
	assert.Equal(t, "Custom description", card.DescriptionOverride)
	assert.Equal(t, "pubidCustom", card.Key)
}

func TestNormalizeContractRef_FailsFast(t *testing.T) {
	tests := []valueobjects.ContractRef{
		nil,
		valueobjects.SimpleContractRef{ID: "no-slash"},
		valueobjects.SimpleContractRef{ID: "too/many/parts"},
		valueobjects.ExtendedContractRef{ID: "pub/id", Modules: []string{"bad-module"}},
	}
	for i, ref := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := NormalizeContractRef(ref)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func newCategory(t *testing.T, beta bool) *entities.Category {
	t.Helper()
	category, err := entities.NewCategory(entities.CategoryDocument{
		ID:          "airdrop",
		Name:        "Airdrop",
		Description: "Distribute tokens to many wallets.",
		IsBeta:      beta,
		Contracts: valueobjects.ContractRefs{
			valueobjects.SimpleContractRef{ID: "thirdweb.eth/Airdrop"},
			valueobjects.ExtendedContractRef{ID: "thirdweb.eth/AirdropERC721", Modules: []string{"thirdweb.eth/Claim"}},
		},
	})
	require.NoError(t, err)
	return category
}

func TestNormalizeCategory_StampsTracking(t *testing.T) {
	cards, err := NormalizeCategory(newCategory(t, true))
	require.NoError(t, err)
	require.Len(t, cards, 2)
	for i, card := range cards {
		require.NotNil(t, card.Tracking)
		assert.Equal(t, "airdrop", card.Tracking.Source)
		assert.Equal(t, fmt.Sprint(i), card.Tracking.ItemIndex)
		assert.True(t, card.IsBeta)
	}
	assert.Equal(t, "AirdropERC721", cards[1].ContractID)
}

func TestBuildCategoryView(t *testing.T) {
	view, err := BuildCategoryView(newCategory(t, false), config.DefaultDomainConfig())
	require.NoError(t, err)

	assert.Equal(t, "airdrop", view.ID)
	assert.Equal(t, "Airdrop", view.Title)
	assert.Equal(t, "Airdrop Smart Contracts | Explore", view.SEO.Title)
	assert.Equal(t, "Distribute tokens to many wallets. Deploy with one click to Ethereum, Polygon, Optimism, and other EVM blockchains with thirdweb.", view.SEO.Description)
	assert.Equal(t, []Breadcrumb{
		{Label: "Explore", Href: "/explore"},
		{Label: "Airdrop", Href: "/explore/airdrop"},
	}, view.Breadcrumbs)
	assert.Len(t, view.Cards, 2)
}

func TestNavigator_TabHref(t *testing.T) {
	handle, err := valueobjects.NewContractHandle(137, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	require.NoError(t, err)

	nav := NewNavigator(map[uint64]string{137: "polygon"})
	assert.Equal(t, "/polygon/0x5FbDB2315678afecb367f032d93F642f64180aa3/nfts", nav.TabHref(handle, "nfts"))
	assert.Equal(t, "/polygon/0x5FbDB2315678afecb367f032d93F642f64180aa3", nav.TabHref(handle, ""))
	assert.Equal(t, "10", nav.ChainSlug(10))
}

func tokens(withAsset, without int) []entities.Token {
	var out []entities.Token
	for i := 0; i < withAsset; i++ {
		out = append(out, entities.Token{ID: fmt.Sprint(i), Metadata: entities.TokenMetadata{Image: fmt.Sprintf("ipfs://cid/%d.png", i)}})
	}
	for i := 0; i < without; i++ {
		out = append(out, entities.Token{ID: fmt.Sprint(withAsset + i)})
	}
	return out
}

func newPanel(t *testing.T) (*NFTDetailsPanel, valueobjects.ContractHandle) {
	t.Helper()
	handle, err := valueobjects.NewContractHandle(1, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	require.NoError(t, err)
	return NewNFTDetailsPanel(config.DefaultDomainConfig(), NewNavigator(map[uint64]string{1: "ethereum"})), handle
}

func TestNFTDetailsPanel_TruncatesByViewport(t *testing.T) {
	panel, handle := newPanel(t)

	tests := []struct {
		name     string
		tokens   []entities.Token
		viewport valueobjects.Viewport
		want     int
	}{
		{"two displayable narrow", tokens(2, 3), valueobjects.ViewportNarrow, 2},
		{"two displayable wide", tokens(2, 3), valueobjects.ViewportWide, 2},
		{"five displayable narrow", tokens(5, 0), valueobjects.ViewportNarrow, 2},
		{"five displayable wide", tokens(5, 0), valueobjects.ViewportWide, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := panel.Build(NFTDetailsInput{
				Handle:   handle,
				Tokens:   tt.tokens,
				Viewport: tt.viewport,
				Status:   valueobjects.FetchLoaded,
			})
			assert.True(t, view.Visible)
			assert.Len(t, view.Cards, tt.want)
			for _, card := range view.Cards {
				assert.True(t, card.HasDisplayableAsset())
			}
		})
	}
}

func TestNFTDetailsPanel_HiddenWhenNothingToShow(t *testing.T) {
	panel, handle := newPanel(t)

	for _, status := range []valueobjects.FetchStatus{valueobjects.FetchLoaded, valueobjects.FetchFailed} {
		view := panel.Build(NFTDetailsInput{Handle: handle, Tokens: tokens(0, 5), Status: status})
		assert.False(t, view.Visible, status)
		assert.Nil(t, view.ViewAll)
		assert.Empty(t, view.Heading)
	}
}

func TestNFTDetailsPanel_VisibleWhilePending(t *testing.T) {
	panel, handle := newPanel(t)

	view := panel.Build(NFTDetailsInput{Handle: handle, Status: valueobjects.FetchLoading})
	assert.True(t, view.Visible)
	assert.True(t, view.IsLoading)
	assert.Equal(t, "NFT Details", view.Heading)
	assert.Equal(t, "/ethereum/0x5FbDB2315678afecb367f032d93F642f64180aa3/nfts", view.ViewAll.Href)
	assert.Equal(t, "view_all_nfts", view.ViewAll.TrackingLabel)
}

func TestNFTDetailsPanel_SupplyFlag(t *testing.T) {
	panel, handle := newPanel(t)

	view := panel.Build(NFTDetailsInput{
		Handle:   handle,
		Features: []string{"ERC721", "ERC721ClaimConditionsV1", "Royalty"},
		Status:   valueobjects.FetchLoaded,
		Supply:   &entities.SupplySummary{Total: big.NewInt(10), Claimed: big.NewInt(4)},
	})
	assert.True(t, view.Visible)
	assert.True(t, view.ShowSupply)
	assert.Equal(t, &SupplyView{Total: "10", Claimed: "4", Unclaimed: "6"}, view.Supply)
}

func TestShowsSupply(t *testing.T) {
	allow := config.DefaultSupplyFeatures
	assert.True(t, ShowsSupply([]string{"ERC721ClaimConditionsV1"}, allow))
	assert.True(t, ShowsSupply([]string{"Permissions", "ERC721ClaimCustom"}, allow))
	assert.False(t, ShowsSupply([]string{"ERC721", "ERC1155ClaimPhasesV2"}, allow))
	assert.False(t, ShowsSupply(nil, allow))
}
