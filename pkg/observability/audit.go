package observability

import (
	"go.uber.org/zap"
)

// Audit outcome values
const (
	outcomeSuccess = "SUCCESS"
	outcomeFailure = "FAILURE"
)

// AuditLogger writes the ingestion audit trail through a dedicated named
// logger. Every draft lifecycle transition produces exactly one record.
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates an audit logger on top of the application logger
func NewAuditLogger(base *zap.Logger) *AuditLogger {
	return &AuditLogger{
		logger: base.Named("audit.ingest"),
	}
}

// DraftCreated records a successful draft creation
func (a *AuditLogger) DraftCreated(draftID, sourceRef string, itemCount int) {
	a.logger.Info("DRAFT_CREATED",
		zap.String("draft_id", draftID),
		zap.String("source_ref", sourceRef),
		zap.Int("item_count", itemCount),
		zap.String("outcome", outcomeSuccess),
	)
}

// DraftEdited records an item edit on a pending draft
func (a *AuditLogger) DraftEdited(draftID string, itemCount int) {
	a.logger.Info("DRAFT_EDITED",
		zap.String("draft_id", draftID),
		zap.Int("item_count", itemCount),
		zap.String("outcome", outcomeSuccess),
	)
}

// DraftRejected records a draft rejection
func (a *AuditLogger) DraftRejected(draftID, reason string) {
	a.logger.Info("DRAFT_REJECTED",
		zap.String("draft_id", draftID),
		zap.String("reason", reason),
		zap.String("outcome", outcomeSuccess),
	)
}

// DraftCommitted records a successful ledger commit
func (a *AuditLogger) DraftCommitted(draftID string, ledgerSeq uint64, itemCount int) {
	a.logger.Info("DRAFT_COMMITTED",
		zap.String("draft_id", draftID),
		zap.Uint64("ledger_seq", ledgerSeq),
		zap.Int("item_count", itemCount),
		zap.String("outcome", outcomeSuccess),
	)
}

// CommitFailed records a failed commit attempt; the draft stays pending
func (a *AuditLogger) CommitFailed(draftID string, err error) {
	a.logger.Warn("DRAFT_COMMIT_FAILED",
		zap.String("draft_id", draftID),
		zap.Error(err),
		zap.String("outcome", outcomeFailure),
	)
}
