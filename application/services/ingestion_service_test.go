package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	"github.com/sakettamrakar/eatclub/infrastructure/capture"
	"github.com/sakettamrakar/eatclub/infrastructure/persistence/memory"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/observability"
)

func newIngestionService(t *testing.T) (*IngestionService, *memory.DraftStore, *memory.LedgerStore) {
	t.Helper()
	logger := zap.NewNop()

	drafts := memory.NewDraftStore()
	ledger := memory.NewLedgerStore()
	locker := memory.NewDraftLocker(5 * time.Second)
	audit := observability.NewAuditLogger(logger)
	metrics := observability.NewMetrics("test", nil)

	coordinator := NewCommitCoordinator(drafts, ledger, locker, nil, audit, metrics, 5*time.Second, logger)
	service := NewIngestionService(
		drafts,
		coordinator,
		locker,
		capture.NewMockProvider(logger),
		nil,
		audit,
		metrics,
		nil,
		logger,
	)
	return service, drafts, ledger
}

func ingestItems(t *testing.T) []valueobjects.LineItem {
	t.Helper()
	rice, err := valueobjects.NewLineItem("Rice", 10, valueobjects.UnitKilogram, 75)
	require.NoError(t, err)
	oil, err := valueobjects.NewLineItem("Oil", 5, valueobjects.UnitLiter, 140)
	require.NoError(t, err)
	return []valueobjects.LineItem{rice, oil}
}

func TestIngestDirect(t *testing.T) {
	ctx := context.Background()
	service, drafts, _ := newIngestionService(t)

	draft, err := service.IngestDirect(ctx, ingestItems(t), "invoice-7")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPending, draft.Status())

	stored, err := drafts.GetByID(ctx, draft.ID())
	require.NoError(t, err)
	assert.Equal(t, "invoice-7", stored.SourceRef())
	assert.Len(t, stored.Items(), 2)

	t.Run("rejects invalid items", func(t *testing.T) {
		_, err := service.IngestDirect(ctx, nil, "ref")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestIngestThroughCaptureProvider(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newIngestionService(t)

	payload, err := json.Marshal(map[string]interface{}{
		"source_ref": "scan-42",
		"items": []map[string]interface{}{
			{"name": "Butter", "quantity": 2, "unit": "KG", "unit_cost": 450},
		},
	})
	require.NoError(t, err)

	draft, err := service.Ingest(ctx, payload, "fallback-ref")
	require.NoError(t, err)
	assert.Equal(t, "scan-42", draft.SourceRef())
	assert.Len(t, draft.Items(), 1)

	t.Run("capture output is validated", func(t *testing.T) {
		bad, err := json.Marshal(map[string]interface{}{
			"items": []map[string]interface{}{
				{"name": "Ghost", "quantity": -1, "unit": "KG"},
			},
		})
		require.NoError(t, err)

		_, err = service.Ingest(ctx, bad, "ref")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		_, err := service.Ingest(ctx, nil, "ref")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestListPending(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newIngestionService(t)

	first, err := service.IngestDirect(ctx, ingestItems(t), "a")
	require.NoError(t, err)
	second, err := service.IngestDirect(ctx, ingestItems(t), "b")
	require.NoError(t, err)

	_, err = service.Reject(ctx, second.ID(), "dup")
	require.NoError(t, err)

	pending, err := service.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID(), pending[0].ID())

	t.Run("unknown status filter is invalid", func(t *testing.T) {
		_, err := service.ListByStatus(ctx, entities.DraftStatus("ARCHIVED"))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestEditDraft(t *testing.T) {
	ctx := context.Background()
	service, drafts, _ := newIngestionService(t)

	draft, err := service.IngestDirect(ctx, ingestItems(t), "ref")
	require.NoError(t, err)

	sugar, err := valueobjects.NewLineItem("Sugar", 1, valueobjects.UnitKilogram, 45)
	require.NoError(t, err)

	edited, err := service.EditDraft(ctx, draft.ID(), []valueobjects.LineItem{sugar})
	require.NoError(t, err)
	assert.Len(t, edited.Items(), 1)
	assert.Equal(t, 2, edited.Revision())

	stored, err := drafts.GetByID(ctx, draft.ID())
	require.NoError(t, err)
	assert.Equal(t, "Sugar", stored.Items()[0].Name)

	t.Run("editing a committed draft fails", func(t *testing.T) {
		_, err := service.Confirm(ctx, draft.ID(), "reviewer")
		require.NoError(t, err)

		_, err = service.EditDraft(ctx, draft.ID(), []valueobjects.LineItem{sugar})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})

	t.Run("editing a missing draft fails", func(t *testing.T) {
		_, err := service.EditDraft(ctx, valueobjects.NewDraftID(), []valueobjects.LineItem{sugar})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestRejectDraft(t *testing.T) {
	ctx := context.Background()
	service, _, ledger := newIngestionService(t)

	draft, err := service.IngestDirect(ctx, ingestItems(t), "ref")
	require.NoError(t, err)

	rejected, err := service.Reject(ctx, draft.ID(), "blurry scan")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusRejected, rejected.Status())
	assert.Equal(t, "blurry scan", rejected.RejectReason())

	t.Run("repeat rejection succeeds and keeps the first reason", func(t *testing.T) {
		again, err := service.Reject(ctx, draft.ID(), "other reason")
		require.NoError(t, err)
		assert.Equal(t, "blurry scan", again.RejectReason())
	})

	t.Run("rejected draft cannot be confirmed", func(t *testing.T) {
		_, err := service.Confirm(ctx, draft.ID(), "reviewer")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))

		entries, err := ledger.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("committed draft cannot be rejected", func(t *testing.T) {
		other, err := service.IngestDirect(ctx, ingestItems(t), "ref-2")
		require.NoError(t, err)
		_, err = service.Confirm(ctx, other.ID(), "reviewer")
		require.NoError(t, err)

		_, err = service.Reject(ctx, other.ID(), "too late")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})
}

func TestIngestAndCommit(t *testing.T) {
	ctx := context.Background()
	service, drafts, ledger := newIngestionService(t)

	entry, err := service.IngestAndCommit(ctx, ingestItems(t), "manual-entry", "admin")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Seq())
	assert.Equal(t, "admin", entry.Actor())

	// The audit trail keeps the intermediate draft, already committed
	committed, err := drafts.ListByStatus(ctx, entities.StatusCommitted)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, entry.SourceDraftID(), committed[0].ID())

	entries, err := ledger.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
