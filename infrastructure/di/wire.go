//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/sakettamrakar/eatclub/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDraftRepository,
	ProvideLedgerStore,
	ProvideDraftLocker,
	ProvideEventPublisher,
	ProvideCaptureProvider,
	ProvideAuditLogger,
	ProvideMetrics,
	ProvideTracer,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideCommitCoordinator,
	ProvideIngestionService,
	ProvideInventoryProjection,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
