package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/config"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/observability"
)

// IngestionService owns the draft session lifecycle up to the point of
// confirmation. Confirmation itself is delegated to the CommitCoordinator.
type IngestionService struct {
	drafts      ports.DraftRepository
	coordinator *CommitCoordinator
	locker      ports.DraftLocker
	capture     ports.CaptureProvider
	publisher   ports.EventPublisher
	audit       *observability.AuditLogger
	metrics     *observability.Metrics
	domainCfg   *config.DomainConfig
	logger      *zap.Logger
}

// NewIngestionService creates the ingestion service with its dependencies
func NewIngestionService(
	drafts ports.DraftRepository,
	coordinator *CommitCoordinator,
	locker ports.DraftLocker,
	capture ports.CaptureProvider,
	publisher ports.EventPublisher,
	audit *observability.AuditLogger,
	metrics *observability.Metrics,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *IngestionService {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &IngestionService{
		drafts:      drafts,
		coordinator: coordinator,
		locker:      locker,
		capture:     capture,
		publisher:   publisher,
		audit:       audit,
		metrics:     metrics,
		domainCfg:   domainCfg,
		logger:      logger.Named("ingestion-service"),
	}
}

// Ingest runs raw capture data through the capture provider and stores the
// extracted items as a new pending draft. The capture output is untrusted;
// validation always runs on this side of the boundary.
func (s *IngestionService) Ingest(ctx context.Context, data []byte, sourceRef string) (*entities.Draft, error) {
	if s.capture == nil {
		return nil, pkgerrors.NewUnavailableError("capture provider")
	}
	if len(data) == 0 {
		return nil, pkgerrors.NewValidationError("capture data cannot be empty")
	}

	raw, err := s.capture.Process(ctx, data, sourceRef)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "capture processing failed")
	}
	if raw.SourceRef != "" {
		sourceRef = raw.SourceRef
	}

	return s.IngestDirect(ctx, raw.Items, sourceRef)
}

// IngestDirect stores an already structured item set as a new pending draft.
// This is the manual entry path; it shares all validation with Ingest.
func (s *IngestionService) IngestDirect(ctx context.Context, items []valueobjects.LineItem, sourceRef string) (*entities.Draft, error) {
	draft, err := entities.NewDraftWithConfig(items, sourceRef, s.domainCfg)
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save draft")
	}

	s.publishEvents(ctx, draft)
	s.audit.DraftCreated(draft.ID().String(), draft.SourceRef(), len(items))
	s.metrics.IncrementCounter(ctx, "DraftsCreated", nil)

	s.logger.Info("draft created",
		zap.String("draft_id", draft.ID().String()),
		zap.String("source_ref", draft.SourceRef()),
		zap.Int("item_count", len(items)),
	)

	return draft, nil
}

// GetDraft retrieves a single draft by ID
func (s *IngestionService) GetDraft(ctx context.Context, id valueobjects.DraftID) (*entities.Draft, error) {
	return s.drafts.GetByID(ctx, id)
}

// ListPending lists all drafts awaiting review, oldest first
func (s *IngestionService) ListPending(ctx context.Context) ([]*entities.Draft, error) {
	return s.drafts.ListByStatus(ctx, entities.StatusPending)
}

// ListByStatus lists drafts in the given status, oldest first
func (s *IngestionService) ListByStatus(ctx context.Context, status entities.DraftStatus) ([]*entities.Draft, error) {
	if !status.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown draft status")
	}
	return s.drafts.ListByStatus(ctx, status)
}

// EditDraft replaces the item set of a pending draft. Edits on the same
// draft are serialized through the per-draft lock.
func (s *IngestionService) EditDraft(ctx context.Context, id valueobjects.DraftID, items []valueobjects.LineItem) (*entities.Draft, error) {
	lock, err := s.locker.Acquire(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to acquire draft lock")
	}
	defer s.releaseLock(ctx, lock, id)

	draft, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expectedRevision := draft.Revision()
	if err := draft.ReplaceItemsWithConfig(items, s.domainCfg); err != nil {
		return nil, err
	}

	if err := s.drafts.Update(ctx, draft, expectedRevision); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update draft")
	}

	s.publishEvents(ctx, draft)
	s.audit.DraftEdited(draft.ID().String(), len(items))

	s.logger.Info("draft items replaced",
		zap.String("draft_id", draft.ID().String()),
		zap.Int("item_count", len(items)),
	)

	return draft, nil
}

// Reject transitions a draft to REJECTED. Rejecting an already rejected
// draft succeeds without a second transition.
func (s *IngestionService) Reject(ctx context.Context, id valueobjects.DraftID, reason string) (*entities.Draft, error) {
	lock, err := s.locker.Acquire(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to acquire draft lock")
	}
	defer s.releaseLock(ctx, lock, id)

	draft, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expectedRevision := draft.Revision()
	if err := draft.Reject(reason); err != nil {
		return nil, err
	}

	// A repeated rejection does not bump the revision; nothing to persist
	if draft.Revision() == expectedRevision {
		return draft, nil
	}

	if err := s.drafts.Update(ctx, draft, expectedRevision); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update draft")
	}

	s.publishEvents(ctx, draft)
	s.audit.DraftRejected(draft.ID().String(), reason)
	s.metrics.IncrementCounter(ctx, "DraftsRejected", nil)

	s.logger.Info("draft rejected",
		zap.String("draft_id", draft.ID().String()),
		zap.String("reason", reason),
	)

	return draft, nil
}

// IngestAndCommit is the manual entry path: a pre-reviewed item set flows
// through the same draft pipeline and is confirmed in one call. The draft
// exists for the audit trail; the commit uses the same machinery as Confirm.
func (s *IngestionService) IngestAndCommit(ctx context.Context, items []valueobjects.LineItem, sourceRef, actor string) (*entities.LedgerEntry, error) {
	draft, err := s.IngestDirect(ctx, items, sourceRef)
	if err != nil {
		return nil, err
	}
	return s.coordinator.Confirm(ctx, draft.ID(), actor)
}

// Confirm commits a pending draft to the ledger exactly once
func (s *IngestionService) Confirm(ctx context.Context, id valueobjects.DraftID, actor string) (*entities.LedgerEntry, error) {
	return s.coordinator.Confirm(ctx, id, actor)
}

// publishEvents drains the draft's uncommitted events to the event bus.
// Event delivery is best effort and never fails the calling operation.
func (s *IngestionService) publishEvents(ctx context.Context, draft *entities.Draft) {
	pending := draft.GetUncommittedEvents()
	if len(pending) == 0 || s.publisher == nil {
		draft.MarkEventsAsCommitted()
		return
	}

	if err := s.publisher.PublishBatch(ctx, pending); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("draft_id", draft.ID().String()),
			zap.Int("event_count", len(pending)),
			zap.Error(err),
		)
	}
	draft.MarkEventsAsCommitted()
}

func (s *IngestionService) releaseLock(ctx context.Context, lock ports.Lock, id valueobjects.DraftID) {
	if err := lock.Release(ctx); err != nil {
		s.logger.Warn("failed to release draft lock",
			zap.String("draft_id", id.String()),
			zap.Error(err),
		)
	}
}
