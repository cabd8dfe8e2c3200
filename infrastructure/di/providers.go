package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/application/queries"
	"github.com/sakettamrakar/eatclub/application/services"
	domainconfig "github.com/sakettamrakar/eatclub/domain/config"
	"github.com/sakettamrakar/eatclub/infrastructure/capture"
	"github.com/sakettamrakar/eatclub/infrastructure/config"
	"github.com/sakettamrakar/eatclub/infrastructure/messaging/eventbridge"
	dynamostore "github.com/sakettamrakar/eatclub/infrastructure/persistence/dynamodb"
	"github.com/sakettamrakar/eatclub/infrastructure/persistence/memory"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/observability"
	"github.com/sakettamrakar/eatclub/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	DraftRepo    ports.DraftRepository
	Ledger       ports.LedgerStore
	Locker       ports.DraftLocker
	Publisher    ports.EventPublisher
	Capture      ports.CaptureProvider
	Coordinator  *services.CommitCoordinator
	Ingestion    *services.IngestionService
	Projection   *queries.InventoryProjection
	Audit        *observability.AuditLogger
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
	RateLimiter  ratelimit.Limiter
	ErrorHandler *pkgerrors.ErrorHandler
}

// ProvideLogger creates a new logger instance. Lambda always gets the JSON
// production encoder; the log level follows configuration in both modes.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// ProvideDomainConfig loads the environment's domain rules
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
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

// ProvideDraftRepository creates the draft repository for the configured
// storage driver
func ProvideDraftRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DraftRepository {
	if cfg.StorageDriver == config.StorageDynamoDB {
		return dynamostore.NewDraftRepository(client, cfg.DraftsTable, logger)
	}
	return memory.NewDraftStore()
}

// ProvideLedgerStore creates the ledger store for the configured storage driver
func ProvideLedgerStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.LedgerStore {
	if cfg.StorageDriver == config.StorageDynamoDB {
		return dynamostore.NewLedgerStore(client, cfg.LedgerTable, logger)
	}
	return memory.NewLedgerStore()
}

// ProvideDraftLocker creates the per-draft locker for the configured
// storage driver
func ProvideDraftLocker(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DraftLocker {
	if cfg.StorageDriver == config.StorageDynamoDB {
		return dynamostore.NewDraftLocker(client, cfg.LocksTable, cfg.CommitLockDuration, cfg.CommitLockTimeout, logger)
	}
	return memory.NewDraftLocker(cfg.CommitLockTimeout)
}

// ProvideEventPublisher creates the event publisher, or nil when event
// publishing is disabled
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCaptureProvider creates the capture provider
func ProvideCaptureProvider(logger *zap.Logger) ports.CaptureProvider {
	return capture.NewMockProvider(logger)
}

// ProvideAuditLogger creates the ingestion audit logger
func ProvideAuditLogger(logger *zap.Logger) *observability.AuditLogger {
	return observability.NewAuditLogger(logger)
}

// ProvideMetrics creates the metrics publisher. Without the metrics flag
// the publisher is wired with a nil client and becomes a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics("EatClub/"+cfg.Environment, nil)
	}
	return observability.NewMetrics("EatClub/"+cfg.Environment, client)
}

// ProvideTracer creates the tracer, or nil when tracing is disabled
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("eatclub-ingestion")
}

// ProvideRateLimiter creates the request rate limiter
func ProvideRateLimiter(client *awsdynamodb.Client, cfg *config.Config) ratelimit.Limiter {
	if cfg.StorageDriver == config.StorageDynamoDB {
		return ratelimit.NewDistributedIPLimiter(client, cfg.LocksTable, cfg.RateLimitPerMinute)
	}
	return ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideCommitCoordinator creates the commit coordinator
func ProvideCommitCoordinator(
	drafts ports.DraftRepository,
	ledger ports.LedgerStore,
	locker ports.DraftLocker,
	publisher ports.EventPublisher,
	audit *observability.AuditLogger,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *services.CommitCoordinator {
	return services.NewCommitCoordinator(drafts, ledger, locker, publisher, audit, metrics, cfg.StorageTimeout, logger)
}

// ProvideIngestionService creates the ingestion service
func ProvideIngestionService(
	drafts ports.DraftRepository,
	coordinator *services.CommitCoordinator,
	locker ports.DraftLocker,
	captureProvider ports.CaptureProvider,
	publisher ports.EventPublisher,
	audit *observability.AuditLogger,
	metrics *observability.Metrics,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.IngestionService {
	return services.NewIngestionService(drafts, coordinator, locker, captureProvider, publisher, audit, metrics, domainCfg, logger)
}

// ProvideInventoryProjection creates the inventory read model
func ProvideInventoryProjection(ledger ports.LedgerStore, logger *zap.Logger) *queries.InventoryProjection {
	return queries.NewInventoryProjection(ledger, logger)
}
