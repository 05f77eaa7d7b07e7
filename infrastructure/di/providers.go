package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dashboard/application/commands"
	"dashboard/application/commands/bus"
	"dashboard/application/ports"
	"dashboard/application/queries"
	querybus "dashboard/application/queries/bus"
	queries_handlers "dashboard/application/queries/handlers"
	"dashboard/application/services"
	domainconfig "dashboard/domain/config"
	domainservices "dashboard/domain/services"
	"dashboard/infrastructure/cache"
	"dashboard/infrastructure/chain"
	"dashboard/infrastructure/config"
	"dashboard/infrastructure/messaging"
	"dashboard/infrastructure/messaging/eventbridge"
	"dashboard/infrastructure/persistence/dynamodb"
	"dashboard/infrastructure/persistence/memory"
	"dashboard/infrastructure/publisher"
	"dashboard/infrastructure/registry"
	"dashboard/interfaces/http/rest"
	"dashboard/interfaces/http/rest/middleware"
	"dashboard/pkg/auth"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "dashboard-explore"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideDomainConfig selects the domain rules for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dcfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if err := dcfg.Validate(); err != nil {
		return nil, err
	}
	return dcfg, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCategoryRegistry loads the category descriptors
func ProvideCategoryRegistry(cfg *config.Config, dcfg *domainconfig.DomainConfig, logger *zap.Logger) (ports.CategoryRegistry, error) {
	reg, err := registry.Load(cfg.CategoriesFile, dcfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Category registry loaded",
		zap.Int("categories", len(reg.IDs())),
		zap.String("file", cfg.CategoriesFile),
	)
	return reg, nil
}

// ProvideSnapshotStore creates the snapshot store for the configured backend
func ProvideSnapshotStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SnapshotStore {
	if cfg.StorageBackend == config.StorageMemory {
		return memory.NewSnapshotStore()
	}
	return dynamodb.NewSnapshotStore(client, cfg.SnapshotTable, logger)
}

// ProvideLocker creates the prerender lock for the configured backend
func ProvideLocker(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.Locker {
	if cfg.StorageBackend == config.StorageMemory {
		return memory.NewLocker()
	}
	return dynamodb.NewDistributedLock(client, cfg.SnapshotTable, logger)
}

// ProvideEventPublisher publishes to EventBridge, or to the log when no bus is configured
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" || cfg.StorageBackend == config.StorageMemory {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideInMemoryCache creates the process-local cache
func ProvideInMemoryCache() *cache.InMemoryCache {
	return cache.NewInMemoryCache()
}

// ProvideContractRegistry creates the cached published contract registry client
func ProvideContractRegistry(cfg *config.Config, c ports.Cache, logger *zap.Logger) ports.ContractRegistry {
	client := publisher.NewClient(cfg.ContractRegistryURL, cfg.ContractRegistryTimeout, logger)
	return publisher.NewCachedRegistry(client, c, cfg.RegistryCacheTTL)
}

// ProvideClientPool creates the lazily dialed chain clients
func ProvideClientPool(cfg *config.Config, logger *zap.Logger) *chain.ClientPool {
	return chain.NewClientPool(cfg.ChainRPCURLs, chain.DialEthclient, logger)
}

// ProvideMetadataResolver creates the token metadata resolver
func ProvideMetadataResolver(cfg *config.Config, logger *zap.Logger) *chain.MetadataResolver {
	return chain.NewMetadataResolver(cfg.IPFSGateway, cfg.MetadataTimeout, logger)
}

// ProvideTokenReader creates the ERC-721 chain reader
func ProvideTokenReader(pool *chain.ClientPool, resolver *chain.MetadataResolver, dcfg *domainconfig.DomainConfig, logger *zap.Logger) ports.TokenReader {
	return chain.NewERC721Reader(pool, resolver, dcfg.PrefetchConcurrency, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewNopMetrics()
	}
	namespace := fmt.Sprintf("Dashboard/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideHTTPCollector creates the Prometheus collector for the HTTP surface
func ProvideHTTPCollector() *observability.HTTPCollector {
	return observability.NewHTTPCollector("dashboard")
}

// ProvideNavigator creates the chain slug resolver
func ProvideNavigator(cfg *config.Config) *domainservices.Navigator {
	return domainservices.NewNavigator(cfg.ChainSlugs)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvidePrerenderCategoryHandler creates the single category prerender handler
func ProvidePrerenderCategoryHandler(
	loader *services.CategoryLoader,
	store ports.SnapshotStore,
	locker ports.Locker,
	events ports.EventPublisher,
	c ports.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) *commands.PrerenderCategoryHandler {
	return commands.NewPrerenderCategoryHandler(loader, store, locker, events, c, cfg.PrerenderLockTTL, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	category *commands.PrerenderCategoryHandler,
	all *commands.PrerenderAllHandler,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)

	if err := commandBus.Register(commands.PrerenderCategoryCommand{}, category); err != nil {
		return nil, err
	}
	if err := commandBus.Register(commands.PrerenderAllCommand{}, all); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	categories ports.CategoryRegistry,
	store ports.SnapshotStore,
	generator *commands.PrerenderCategoryHandler,
	panels *services.NFTDetailsService,
	collector *observability.HTTPCollector,
	c ports.Cache,
	metrics *observability.Metrics,
	dcfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.MetricsMiddleware(metrics),
		querybus.CachingMiddleware(c, cfg.PageCacheTTL),
	)

	pageHandler := queries_handlers.NewGetCategoryPageHandler(categories, store, generator, cfg.RevalidateOnMiss, dcfg, logger)
	if err := queryBus.Register(queries.GetCategoryPageQuery{}, pageHandler); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.ListCategoryPathsQuery{}, queries_handlers.NewListCategoryPathsHandler(categories)); err != nil {
		return nil, err
	}

	panelHandler := queries_handlers.NewGetNFTDetailsHandler(panels, cfg.PanelWaitTimeout, collector)
	if err := queryBus.Register(queries.GetNFTDetailsQuery{}, panelHandler); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideJWTValidator creates the operator token validator. Without a secret
// the protected routes answer 503.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, revalidation is disabled")
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
	})
}

// ProvideRateLimiter limits chain reads. Lambda instances share counters in
// DynamoDB; a long running server counts in process.
func ProvideRateLimiter(client *awsdynamodb.Client, cfg *config.Config) middleware.Limiter {
	if cfg.IsLambda && cfg.StorageBackend == config.StorageDynamoDB {
		return auth.NewDistributedIPRateLimiter(client, cfg.SnapshotTable, cfg.ChainReadsPerMinute)
	}
	return auth.NewIPRateLimiter(cfg.ChainReadsPerMinute)
}

// ProvideReadinessCheck verifies the snapshot table is reachable
func ProvideReadinessCheck(client *awsdynamodb.Client, cfg *config.Config) rest.ReadinessCheck {
	if cfg.StorageBackend != config.StorageDynamoDB {
		return nil
	}
	return func(r *http.Request) error {
		_, err := client.DescribeTable(r.Context(), &awsdynamodb.DescribeTableInput{
			TableName: aws.String(cfg.SnapshotTable),
		})
		return err
	}
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	panels *services.NFTDetailsService,
	validator *auth.JWTValidator,
	limiter middleware.Limiter,
	collector *observability.HTTPCollector,
	errs *pkgerrors.ErrorHandler,
	ready rest.ReadinessCheck,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		rest.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			EnableCORS:     cfg.EnableCORS,
			EnableMetrics:  cfg.EnableMetrics,
			TrustGateway:   cfg.IsLambda,
			PageCacheTTL:   secondsToDuration(cfg.PageCacheTTL),
			RequestTimeout: cfg.RequestTimeout,
			Version:        cfg.Version,
		},
		commandBus,
		queryBus,
		panels,
		validator,
		limiter,
		collector,
		errs,
		ready,
		logger,
	)
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
