package services

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"dashboard/application/hydration"
	"dashboard/application/ports"
	"dashboard/application/ports/mocks"
	"dashboard/domain/config"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	domainservices "dashboard/domain/services"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticRegistry map[string]*entities.Category

func (r staticRegistry) Get(id string) (*entities.Category, bool) {
	c, ok := r[id]
	return c, ok
}

func (r staticRegistry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}

func modularCategory(t *testing.T) *entities.Category {
	t.Helper()
	category, err := entities.NewCategory(entities.CategoryDocument{
		ID:          "modular-contracts",
		Name:        "Modular Contracts",
		Description: "Extend contracts with modules.",
		Contracts: valueobjects.ContractRefs{
			valueobjects.ExtendedContractRef{
				ID:      "deployer.thirdweb.eth/ERC721CoreInitializable",
				Modules: []string{"deployer.thirdweb.eth/ClaimableERC721", "thirdweb.eth/RoyaltyERC721"},
			},
			valueobjects.SimpleContractRef{ID: "thirdweb.eth/DropERC721"},
		},
	})
	require.NoError(t, err)
	return category
}

func newLoader(registry ports.CategoryRegistry, contracts ports.ContractRegistry) *CategoryLoader {
	return NewCategoryLoader(
		registry,
		contracts,
		config.DefaultDomainConfig(),
		observability.NewTracer("test", false),
		observability.NewNopMetrics(),
		zap.NewNop(),
	)
}

func TestCategoryLoader_UnknownCategoryNeverPrefetches(t *testing.T) {
	contracts := new(mocks.MockContractRegistry)
	loader := newLoader(staticRegistry{}, contracts)

	snapshot, err := loader.Load(context.Background(), "does-not-exist", "build")
	assert.Nil(t, snapshot)
	assert.True(t, pkgerrors.IsNotFound(err))
	contracts.AssertNotCalled(t, "GetPublishedContract", mock.Anything, mock.Anything, mock.Anything)
	contracts.AssertNotCalled(t, "GetPublisherProfile", mock.Anything, mock.Anything)
}

func TestCategoryLoader_LoadPrefetchesDistinctQueries(t *testing.T) {
	contracts := new(mocks.MockContractRegistry)
	contracts.On("GetPublishedContract", mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.PublishedContract{Name: "contract"}, nil)
	contracts.On("GetPublisherProfile", mock.Anything, "deployer.thirdweb.eth").
		Return(&ports.PublisherProfile{Name: "deployer.thirdweb.eth"}, nil).Once()
	contracts.On("GetPublisherProfile", mock.Anything, "thirdweb.eth").
		Return(nil, errors.New("profile service down")).Once()

	loader := newLoader(staticRegistry{"modular-contracts": modularCategory(t)}, contracts)
	snapshot, err := loader.Load(context.Background(), "modular-contracts", "build")
	require.NoError(t, err)

	assert.Equal(t, "modular-contracts", snapshot.Category.ID)
	assert.NotEmpty(t, snapshot.Version)
	assert.Equal(t, "build", snapshot.Trigger)
	assert.Equal(t, 1, snapshot.Failed)
	// 4 contracts and modules plus 1 of the 2 publisher profiles
	assert.Len(t, snapshot.State.Queries, 5)

	_, ok := snapshot.State.Find(hydration.PublisherProfileKey("thirdweb.eth"))
	assert.False(t, ok)
	_, ok = snapshot.State.Find(hydration.PublishedContractKey("thirdweb.eth", "RoyaltyERC721"))
	assert.True(t, ok)

	contracts.AssertNumberOfCalls(t, "GetPublishedContract", 4)
	contracts.AssertNumberOfCalls(t, "GetPublisherProfile", 2)
}

func TestCategoryLoader_Paths(t *testing.T) {
	loader := newLoader(staticRegistry{"modular-contracts": modularCategory(t)}, new(mocks.MockContractRegistry))
	assert.Equal(t, []string{"modular-contracts"}, loader.Paths())
}

func testHandle(t *testing.T) valueobjects.ContractHandle {
	t.Helper()
	h, err := valueobjects.ParseContractHandle("1", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	require.NoError(t, err)
	return h
}

func newTokenQueries(reader ports.TokenReader) *TokenQueries {
	return NewTokenQueries(reader, config.DefaultDomainConfig(), observability.NewTracer("test", false), observability.NewNopMetrics(), zap.NewNop())
}

func previewKey(t *testing.T, withSupply bool) TokenQueryKey {
	return TokenQueryKey{
		Handle:     testHandle(t),
		Query:      ports.TokenQuery{Count: 5, IncludeOwners: true},
		WithSupply: withSupply,
	}
}

func TestTokenQueries_SubscribersSeeLoadingThenLoaded(t *testing.T) {
	release := make(chan time.Time)
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).
		WaitUntil(release).
		Return([]entities.Token{{ID: "0", Metadata: entities.TokenMetadata{Image: "ipfs://a"}}}, nil)

	tracker := newTokenQueries(reader)
	key := previewKey(t, false)

	states, cancel := tracker.Subscribe(key)
	defer cancel()

	assert.Equal(t, valueobjects.FetchIdle, (<-states).Status)

	tracker.Ensure(context.Background(), key)
	assert.Equal(t, valueobjects.FetchLoading, (<-states).Status)

	close(release)
	select {
	case state := <-states:
		assert.Equal(t, valueobjects.FetchLoaded, state.Status)
		assert.Len(t, state.Tokens, 1)
	case <-time.After(time.Second):
		t.Fatal("no loaded state")
	}
}

func TestTokenQueries_EnsureDoesNotRefetchFreshResult(t *testing.T) {
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).Return([]entities.Token{}, nil)

	tracker := newTokenQueries(reader)
	key := previewKey(t, false)

	state := tracker.Wait(context.Background(), key)
	require.Equal(t, valueobjects.FetchLoaded, state.Status)

	state = tracker.Ensure(context.Background(), key)
	assert.Equal(t, valueobjects.FetchLoaded, state.Status)
	reader.AssertNumberOfCalls(t, "GetNFTs", 1)
}

func TestTokenQueries_StaleResultIsRefetched(t *testing.T) {
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).Return([]entities.Token{}, nil)

	tracker := newTokenQueries(reader)
	now := time.Now()
	tracker.now = func() time.Time { return now }
	key := previewKey(t, false)

	require.Equal(t, valueobjects.FetchLoaded, tracker.Wait(context.Background(), key).Status)

	now = now.Add(time.Hour)
	assert.Equal(t, valueobjects.FetchLoading, tracker.Ensure(context.Background(), key).Status)
	require.Equal(t, valueobjects.FetchLoaded, tracker.Wait(context.Background(), key).Status)
	reader.AssertNumberOfCalls(t, "GetNFTs", 2)
}

func TestTokenQueries_FailureSettlesAsFailed(t *testing.T) {
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("rpc timeout"))
	reader.On("GetSupply", mock.Anything, mock.Anything).Return(&entities.SupplySummary{Total: big.NewInt(1)}, nil)

	tracker := newTokenQueries(reader)
	state := tracker.Wait(context.Background(), previewKey(t, true))

	assert.Equal(t, valueobjects.FetchFailed, state.Status)
	assert.Equal(t, "rpc timeout", state.Error)
}

func TestTokenQueries_WaitReturnsPendingOnDeadline(t *testing.T) {
	release := make(chan time.Time)
	defer close(release)
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).WaitUntil(release).Return([]entities.Token{}, nil)

	tracker := newTokenQueries(reader)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state := tracker.Wait(ctx, previewKey(t, false))
	assert.Equal(t, valueobjects.FetchLoading, state.Status)
}

func TestTokenQueries_PruneKeepsPendingAndSubscribed(t *testing.T) {
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).Return([]entities.Token{}, nil)

	tracker := newTokenQueries(reader)
	now := time.Now()
	tracker.now = func() time.Time { return now }

	settled := previewKey(t, false)
	watched := previewKey(t, true)

	tracker.Wait(context.Background(), settled)
	_, cancel := tracker.Subscribe(watched)
	defer cancel()

	now = now.Add(time.Hour)
	assert.Equal(t, 1, tracker.Prune(time.Minute))
	assert.Equal(t, valueobjects.FetchIdle, tracker.State(settled).Status)
}

func newDetailsService(reader ports.TokenReader) *NFTDetailsService {
	cfg := config.DefaultDomainConfig()
	panel := domainservices.NewNFTDetailsPanel(cfg, domainservices.NewNavigator(map[uint64]string{1: "ethereum"}))
	return NewNFTDetailsService(newTokenQueries(reader), panel, cfg)
}

func TestNFTDetailsService_Render(t *testing.T) {
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, ports.TokenQuery{Count: 5, IncludeOwners: true}).
		Return([]entities.Token{
			{ID: "0", Metadata: entities.TokenMetadata{Image: "ipfs://0"}},
			{ID: "1"},
			{ID: "2", Metadata: entities.TokenMetadata{AnimationURL: "ipfs://2"}},
			{ID: "3"},
			{ID: "4"},
		}, nil)

	service := newDetailsService(reader)
	view, err := service.Render(context.Background(), NFTDetailsRequest{
		ChainID:  "1",
		Address:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Viewport: "narrow",
	}, time.Second)
	require.NoError(t, err)

	assert.True(t, view.Visible)
	assert.Len(t, view.Cards, 2)
	assert.Equal(t, valueobjects.FetchLoaded, view.FetchStatus)
	reader.AssertNotCalled(t, "GetSupply", mock.Anything, mock.Anything)
}

func TestNFTDetailsService_FailedReadIsHidden(t *testing.T) {
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("execution reverted"))

	view, err := newDetailsService(reader).Render(context.Background(), NFTDetailsRequest{
		ChainID: "1",
		Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	}, time.Second)
	require.NoError(t, err)
	assert.False(t, view.Visible)
	assert.Equal(t, valueobjects.FetchFailed, view.FetchStatus)
}

func TestNFTDetailsService_RejectsBadHandle(t *testing.T) {
	_, err := newDetailsService(new(mocks.MockTokenReader)).Render(context.Background(), NFTDetailsRequest{
		ChainID: "0",
		Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	}, 0)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNFTDetailsService_Watch(t *testing.T) {
	release := make(chan time.Time)
	reader := new(mocks.MockTokenReader)
	reader.On("GetNFTs", mock.Anything, mock.Anything, mock.Anything).WaitUntil(release).Return([]entities.Token{}, nil)
	reader.On("GetSupply", mock.Anything, mock.Anything).Return(&entities.SupplySummary{Total: big.NewInt(3), Claimed: big.NewInt(1)}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := newDetailsService(reader).Watch(ctx, NFTDetailsRequest{
		ChainID:  "1",
		Address:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Features: []string{"ERC721ClaimPhasesV2"},
	})
	require.NoError(t, err)

	var statuses []valueobjects.FetchStatus
	deadline := time.After(2 * time.Second)
	for len(statuses) == 0 || statuses[len(statuses)-1] != valueobjects.FetchLoaded {
		select {
		case view := <-views:
			statuses = append(statuses, view.FetchStatus)
			if view.FetchStatus == valueobjects.FetchLoading {
				assert.True(t, view.Visible)
				close(release)
			}
		case <-deadline:
			t.Fatalf("stream stalled after %v", statuses)
		}
	}

	assert.Equal(t, []valueobjects.FetchStatus{valueobjects.FetchLoading, valueobjects.FetchLoaded}, statuses,
		"the stream opens on loading, never on the hidden idle state")
	cancel()
	for range views {
	}
}
