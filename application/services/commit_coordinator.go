package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/observability"
)

const defaultCommitTimeout = 10 * time.Second

// CommitCoordinator turns a pending draft into exactly one ledger entry.
//
// The invariant it protects: a draft never produces more than one entry,
// no matter how many confirm calls race or how the process dies between
// the ledger append and the draft status update. The coordinator holds a
// per-draft lock for the whole commit and scans the ledger for an orphan
// entry from an earlier crashed attempt before appending a new one.
type CommitCoordinator struct {
	drafts        ports.DraftRepository
	ledger        ports.LedgerStore
	locker        ports.DraftLocker
	publisher     ports.EventPublisher
	audit         *observability.AuditLogger
	metrics       *observability.Metrics
	commitTimeout time.Duration
	logger        *zap.Logger
}

// NewCommitCoordinator creates the commit coordinator with its dependencies
func NewCommitCoordinator(
	drafts ports.DraftRepository,
	ledger ports.LedgerStore,
	locker ports.DraftLocker,
	publisher ports.EventPublisher,
	audit *observability.AuditLogger,
	metrics *observability.Metrics,
	commitTimeout time.Duration,
	logger *zap.Logger,
) *CommitCoordinator {
	if commitTimeout <= 0 {
		commitTimeout = defaultCommitTimeout
	}
	return &CommitCoordinator{
		drafts:        drafts,
		ledger:        ledger,
		locker:        locker,
		publisher:     publisher,
		audit:         audit,
		metrics:       metrics,
		commitTimeout: commitTimeout,
		logger:        logger.Named("commit-coordinator"),
	}
}

// Confirm commits the draft to the ledger. Confirming an already committed
// draft returns the existing entry without writing anything. Confirming a
// rejected draft fails. On any failure the draft remains PENDING and the
// call can be retried.
func (c *CommitCoordinator) Confirm(ctx context.Context, id valueobjects.DraftID, actor string) (*entities.LedgerEntry, error) {
	start := time.Now()

	// Cheap pre-check outside the lock for the common retry case
	draft, err := c.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Status() == entities.StatusCommitted {
		return c.ledger.GetBySeq(ctx, draft.CommittedLedgerSeq())
	}
	if draft.Status() == entities.StatusRejected {
		return nil, pkgerrors.NewInvalidStateError("cannot confirm a rejected draft")
	}

	lock, err := c.locker.Acquire(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to acquire draft lock")
	}
	defer c.releaseLock(ctx, lock, id)

	entry, err := c.confirmLocked(ctx, id, actor)
	if err != nil {
		c.audit.CommitFailed(id.String(), err)
		return nil, err
	}

	c.metrics.IncrementCounter(ctx, "DraftsCommitted", nil)
	c.metrics.RecordDuration(ctx, "ConfirmLatency", time.Since(start), nil)
	return entry, nil
}

// confirmLocked runs the commit protocol while the per-draft lock is held
func (c *CommitCoordinator) confirmLocked(ctx context.Context, id valueobjects.DraftID, actor string) (*entities.LedgerEntry, error) {
	// Re-read under the lock; a racing confirm may have won
	draft, err := c.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Status() == entities.StatusCommitted {
		return c.ledger.GetBySeq(ctx, draft.CommittedLedgerSeq())
	}
	if draft.Status() == entities.StatusRejected {
		return nil, pkgerrors.NewInvalidStateError("cannot confirm a rejected draft")
	}

	// A crash between the append and the status update leaves an orphan
	// ledger entry behind. Scan for it before appending so a retry adopts
	// the existing entry instead of writing a duplicate.
	entry, err := c.ledger.FindBySourceDraft(ctx, id)
	switch {
	case err == nil:
		c.logger.Info("recovered orphan ledger entry from earlier commit attempt",
			zap.String("draft_id", id.String()),
			zap.Uint64("ledger_seq", entry.Seq()),
		)
		c.metrics.IncrementCounter(ctx, "CommitRecoveries", nil)
	case pkgerrors.IsNotFound(err):
		entry = nil
	default:
		return nil, pkgerrors.Wrap(err, "recovery scan failed")
	}

	// Past this point the commit must not be abandoned by caller
	// cancellation. The append and the status update run on a detached
	// context so both sides of the commit see the same fate.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.commitTimeout)
	defer cancel()

	if entry == nil {
		entry, err = c.ledger.Append(commitCtx, id, draft.Items(), actor)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "ledger append failed")
		}
	}

	expectedRevision := draft.Revision()
	if err := draft.MarkCommitted(entry.Seq()); err != nil {
		return nil, err
	}
	if err := c.drafts.Update(commitCtx, draft, expectedRevision); err != nil {
		// The ledger entry exists; the next confirm finds it through the
		// recovery scan and completes the status update
		return nil, pkgerrors.Wrap(err, "failed to mark draft committed")
	}

	c.publishEvents(commitCtx, draft)
	c.audit.DraftCommitted(id.String(), entry.Seq(), len(entry.Items()))

	c.logger.Info("draft committed",
		zap.String("draft_id", id.String()),
		zap.Uint64("ledger_seq", entry.Seq()),
		zap.String("actor", entry.Actor()),
	)

	return entry, nil
}

func (c *CommitCoordinator) publishEvents(ctx context.Context, draft *entities.Draft) {
	pending := draft.GetUncommittedEvents()
	if len(pending) == 0 || c.publisher == nil {
		draft.MarkEventsAsCommitted()
		return
	}

	if err := c.publisher.PublishBatch(ctx, pending); err != nil {
		c.logger.Warn("failed to publish domain events",
			zap.String("draft_id", draft.ID().String()),
			zap.Error(err),
		)
	}
	draft.MarkEventsAsCommitted()
}

func (c *CommitCoordinator) releaseLock(ctx context.Context, lock ports.Lock, id valueobjects.DraftID) {
	// Release on a detached context so a cancelled request still frees the lock
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := lock.Release(releaseCtx); err != nil {
		c.logger.Warn("failed to release draft lock",
			zap.String("draft_id", id.String()),
			zap.Error(err),
		)
	}
}
