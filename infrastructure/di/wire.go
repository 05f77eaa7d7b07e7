//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"dashboard/application/commands"
	"dashboard/application/ports"
	"dashboard/application/services"
	domainservices "dashboard/domain/services"
	"dashboard/infrastructure/cache"
	"dashboard/infrastructure/config"

	"github.com/google/wire"
)

// InfrastructureSet provides clients, storage and the chain read layer
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCategoryRegistry,
	ProvideSnapshotStore,
	ProvideLocker,
	ProvideEventPublisher,
	ProvideInMemoryCache,
	wire.Bind(new(ports.Cache), new(*cache.InMemoryCache)),
	ProvideContractRegistry,
	ProvideClientPool,
	ProvideMetadataResolver,
	ProvideTokenReader,
	ProvideTracer,
	ProvideMetrics,
	ProvideHTTPCollector,
)

// ApplicationSet provides domain services, handlers and the buses
var ApplicationSet = wire.NewSet(
	ProvideNavigator,
	domainservices.NewNFTDetailsPanel,
	services.NewCategoryLoader,
	services.NewTokenQueries,
	services.NewNFTDetailsService,
	ProvidePrerenderCategoryHandler,
	commands.NewPrerenderAllHandler,
	ProvideCommandBus,
	ProvideQueryBus,
)

// InterfaceSet provides the HTTP surface
var InterfaceSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideJWTValidator,
	ProvideRateLimiter,
	ProvideReadinessCheck,
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	InterfaceSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
