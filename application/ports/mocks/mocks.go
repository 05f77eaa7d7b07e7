// Package mocks holds testify mocks of the application ports.
package mocks

import (
	"context"
	"time"

	"dashboard/application/ports"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	"dashboard/domain/events"

	"github.com/stretchr/testify/mock"
)

type MockContractRegistry struct {
	mock.Mock
}

func (m *MockContractRegistry) GetPublishedContract(ctx context.Context, publisher, contractID string) (*ports.PublishedContract, error) {
	args := m.Called(ctx, publisher, contractID)
	if c, ok := args.Get(0).(*ports.PublishedContract); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractRegistry) GetPublisherProfile(ctx context.Context, publisher string) (*ports.PublisherProfile, error) {
	args := m.Called(ctx, publisher)
	if p, ok := args.Get(0).(*ports.PublisherProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTokenReader struct {
	mock.Mock
}

func (m *MockTokenReader) GetNFTs(ctx context.Context, handle valueobjects.ContractHandle, query ports.TokenQuery) ([]entities.Token, error) {
	args := m.Called(ctx, handle, query)
	tokens, _ := args.Get(0).([]entities.Token)
	return tokens, args.Error(1)
}

func (m *MockTokenReader) GetSupply(ctx context.Context, handle valueobjects.ContractHandle) (*entities.SupplySummary, error) {
	args := m.Called(ctx, handle)
	if s, ok := args.Get(0).(*entities.SupplySummary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *ports.CategorySnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotStore) Get(ctx context.Context, categoryID string) (*ports.CategorySnapshot, error) {
	args := m.Called(ctx, categoryID)
	if s, ok := args.Get(0).(*ports.CategorySnapshot); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnapshotStore) Delete(ctx context.Context, categoryID string) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	args := m.Called(ctx, domainEvents)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lock, error) {
	args := m.Called(ctx, resource, owner, ttl)
	if l, ok := args.Get(0).(ports.Lock); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
