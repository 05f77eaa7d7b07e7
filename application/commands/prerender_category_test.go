package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dashboard/application/ports"
	"dashboard/application/ports/mocks"
	"dashboard/application/services"
	"dashboard/domain/config"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	"dashboard/domain/events"
	"dashboard/infrastructure/persistence/memory"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type registry map[string]*entities.Category

func (r registry) Get(id string) (*entities.Category, bool) {
	c, ok := r[id]
	return c, ok
}

func (r registry) IDs() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	return out
}

type mapCache map[string]interface{}

func (c mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c[key] = value
	return nil
}
func (c mapCache) Delete(_ context.Context, key string) error {
	delete(c, key)
	return nil
}

func (c mapCache) Clear(context.Context) error { return nil }

type fixture struct {
	contracts *mocks.MockContractRegistry
	store     *mocks.MockSnapshotStore
	locker    *mocks.MockLocker
	lock      *mocks.MockLock
	publisher *mocks.MockEventPublisher
	cache     mapCache
	loader    *services.CategoryLoader
	handler   *PrerenderCategoryHandler
	all       *PrerenderAllHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	category, err := entities.NewCategory(entities.CategoryDocument{
		ID:          "nft",
		Name:        "NFTs",
		Description: "Unique digital assets.",
		Contracts:   valueobjects.ContractRefs{valueobjects.SimpleContractRef{ID: "thirdweb.eth/DropERC721"}},
	})
	require.NoError(t, err)

	f := &fixture{
		contracts: new(mocks.MockContractRegistry),
		store:     new(mocks.MockSnapshotStore),
		locker:    new(mocks.MockLocker),
		lock:      new(mocks.MockLock),
		publisher: new(mocks.MockEventPublisher),
		cache:     mapCache{},
	}
	f.contracts.On("GetPublishedContract", mock.Anything, "thirdweb.eth", "DropERC721").Return(&ports.PublishedContract{Name: "DropERC721"}, nil)
	f.contracts.On("GetPublisherProfile", mock.Anything, "thirdweb.eth").Return(&ports.PublisherProfile{Name: "thirdweb.eth"}, nil)
	f.lock.On("Release", mock.Anything).Return(nil)

	loader := services.NewCategoryLoader(
		registry{"nft": category},
		f.contracts,
		config.DefaultDomainConfig(),
		observability.NewTracer("test", false),
		observability.NewNopMetrics(),
		zap.NewNop(),
	)
	f.loader = loader
	f.handler = NewPrerenderCategoryHandler(loader, f.store, f.locker, f.publisher, f.cache, 0, zap.NewNop())
	f.all = NewPrerenderAllHandler(loader, f.handler, zap.NewNop())
	return f
}

func TestPrerenderCategory_StoresAndAnnounces(t *testing.T) {
	f := newFixture(t)
	f.locker.On("Acquire", mock.Anything, "prerender#nft", "ci", mock.Anything).Return(f.lock, nil)
	f.store.On("Save", mock.Anything, mock.MatchedBy(func(s *ports.CategorySnapshot) bool {
		return s.Category.ID == "nft" && len(s.State.Queries) == 2
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
		prerendered, ok := e.(events.CategoryPrerendered)
		return ok && prerendered.CategoryID == "nft" && prerendered.QueryCount == 2 && prerendered.Trigger == TriggerBuild
	})).Return(nil)
	f.cache["queries.GetCategoryPageQuery:nft"] = "stale"

	err := f.handler.Handle(context.Background(), PrerenderCategoryCommand{CategoryID: "nft", Trigger: TriggerBuild, Owner: "ci"})
	require.NoError(t, err)

	f.store.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	f.lock.AssertCalled(t, "Release", mock.Anything)
	assert.Empty(t, f.cache)
}

func TestPrerenderCategory_LockHeld(t *testing.T) {
	f := newFixture(t)
	f.locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, pkgerrors.NewConflictError("prerender of nft already running"))

	_, err := f.handler.Generate(context.Background(), "nft", TriggerRevalidate, "user-1")
	assert.True(t, pkgerrors.IsConflict(err))
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPrerenderCategory_StoreFailureAnnouncesFailure(t *testing.T) {
	f := newFixture(t)
	f.locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(f.lock, nil)
	f.store.On("Save", mock.Anything, mock.Anything).Return(pkgerrors.NewStorageError("save snapshot", errors.New("throttled")))
	f.publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.CategoryPrerenderFailed")).Return(nil)

	_, err := f.handler.Generate(context.Background(), "nft", TriggerSchedule, "")
	require.Error(t, err)
	f.publisher.AssertExpectations(t)
	f.lock.AssertCalled(t, "Release", mock.Anything)
}

func TestPrerenderCategory_UnknownCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Generate(context.Background(), "missing", TriggerRevalidate, "user-1")
	assert.True(t, pkgerrors.IsNotFound(err))
	f.locker.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.contracts.AssertNotCalled(t, "GetPublishedContract", mock.Anything, mock.Anything, mock.Anything)
}

func TestPrerenderCommands_Validate(t *testing.T) {
	assert.NoError(t, PrerenderCategoryCommand{CategoryID: "nft", Trigger: TriggerOnDemand}.Validate())
	assert.Error(t, PrerenderCategoryCommand{Trigger: TriggerBuild}.Validate())
	assert.Error(t, PrerenderCategoryCommand{CategoryID: "nft", Trigger: "cron"}.Validate())
	assert.NoError(t, PrerenderAllCommand{Trigger: TriggerSchedule}.Validate())
	assert.Error(t, PrerenderAllCommand{Trigger: TriggerRevalidate}.Validate())
}

func TestPrerenderAll_ContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(f.lock, nil)
	f.store.On("Save", mock.Anything, mock.Anything).Return(errors.New("table missing"))
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := f.all.Handle(context.Background(), PrerenderAllCommand{Trigger: TriggerBuild})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category nft")
}

type slowStore struct {
	*memory.SnapshotStore
	delay time.Duration

	mu    sync.Mutex
	saves int
}

func (s *slowStore) Save(ctx context.Context, snapshot *ports.CategorySnapshot) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.SnapshotStore.Save(ctx, snapshot)
}

func TestPrerenderCategory_OnDemandWaitsForRunningGeneration(t *testing.T) {
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	store := &slowStore{SnapshotStore: memory.NewSnapshotStore(), delay: 150 * time.Millisecond}
	handler := NewPrerenderCategoryHandler(f.loader, store, memory.NewLocker(), f.publisher, f.cache, time.Minute, zap.NewNop())
	handler.poll = 10 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]*ports.CategorySnapshot, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = handler.Generate(context.Background(), "nft", TriggerOnDemand, "")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i], "request %d", i)
		require.NotNil(t, results[i])
	}
	assert.Equal(t, results[0].Version, results[1].Version)
	assert.Equal(t, 1, store.saves)
}

func TestPrerenderCategory_OnDemandWaitHonoursContext(t *testing.T) {
	f := newFixture(t)
	f.locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, pkgerrors.NewConflictError("held").WithCode(pkgerrors.CodeLockHeld))
	f.store.On("Get", mock.Anything, "nft").Return(nil, pkgerrors.NewNotFoundError("snapshot"))
	f.handler.poll = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_, err := f.handler.Generate(ctx, "nft", TriggerOnDemand, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
