package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

func sampleItems(t *testing.T) []valueobjects.LineItem {
	t.Helper()
	rice, err := valueobjects.NewLineItem("Basmati Rice", 5, valueobjects.UnitKilogram, 82.50)
	require.NoError(t, err)
	milk, err := valueobjects.NewLineItem("Milk", 2, valueobjects.UnitLiter, 60)
	require.NoError(t, err)
	return []valueobjects.LineItem{rice, milk}
}

func TestNewDraft(t *testing.T) {
	t.Run("starts pending with revision 1", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "invoice-2041")
		require.NoError(t, err)

		assert.Equal(t, StatusPending, draft.Status())
		assert.Equal(t, 1, draft.Revision())
		assert.Equal(t, "invoice-2041", draft.SourceRef())
		assert.Len(t, draft.Items(), 2)
		assert.False(t, draft.ID().IsZero())
		assert.Zero(t, draft.CommittedLedgerSeq())
	})

	t.Run("rejects empty item set", func(t *testing.T) {
		_, err := NewDraft(nil, "ref")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("emits created event", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		evts := draft.GetUncommittedEvents()
		require.Len(t, evts, 1)
		assert.Equal(t, "draft.created", evts[0].GetEventType())
	})

	t.Run("copies the item slice", func(t *testing.T) {
		items := sampleItems(t)
		draft, err := NewDraft(items, "ref")
		require.NoError(t, err)

		items[0].Name = "Mutated"
		assert.Equal(t, "Basmati Rice", draft.Items()[0].Name)
	})
}

func TestDraftReplaceItems(t *testing.T) {
	t.Run("replaces items and bumps revision", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		oil, err := valueobjects.NewLineItem("Sunflower Oil", 1, valueobjects.UnitLiter, 140)
		require.NoError(t, err)

		require.NoError(t, draft.ReplaceItems([]valueobjects.LineItem{oil}))
		assert.Len(t, draft.Items(), 1)
		assert.Equal(t, 2, draft.Revision())
	})

	t.Run("rejects invalid replacement and keeps old items", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		err = draft.ReplaceItems([]valueobjects.LineItem{{Name: "", Quantity: 1, Unit: valueobjects.UnitGram}})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Len(t, draft.Items(), 2)
		assert.Equal(t, 1, draft.Revision())
	})

	t.Run("fails on committed draft", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)
		require.NoError(t, draft.MarkCommitted(7))

		err = draft.ReplaceItems(sampleItems(t))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})

	t.Run("fails on rejected draft", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)
		require.NoError(t, draft.Reject("duplicate"))

		err = draft.ReplaceItems(sampleItems(t))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})
}

func TestDraftReject(t *testing.T) {
	t.Run("transitions to rejected with reason", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		require.NoError(t, draft.Reject("blurry scan"))
		assert.Equal(t, StatusRejected, draft.Status())
		assert.Equal(t, "blurry scan", draft.RejectReason())
	})

	t.Run("repeated rejection is a no-op", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		require.NoError(t, draft.Reject("first"))
		rev := draft.Revision()

		require.NoError(t, draft.Reject("second"))
		assert.Equal(t, "first", draft.RejectReason())
		assert.Equal(t, rev, draft.Revision())
	})

	t.Run("cannot reject a committed draft", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)
		require.NoError(t, draft.MarkCommitted(3))

		err = draft.Reject("too late")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})
}

func TestDraftMarkCommitted(t *testing.T) {
	t.Run("records the ledger back-reference", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		require.NoError(t, draft.MarkCommitted(42))
		assert.Equal(t, StatusCommitted, draft.Status())
		assert.Equal(t, uint64(42), draft.CommittedLedgerSeq())
	})

	t.Run("same sequence twice is a no-op", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		require.NoError(t, draft.MarkCommitted(42))
		rev := draft.Revision()

		require.NoError(t, draft.MarkCommitted(42))
		assert.Equal(t, rev, draft.Revision())
	})

	t.Run("different sequence is an error", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)
		require.NoError(t, draft.MarkCommitted(42))

		err = draft.MarkCommitted(43)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})

	t.Run("cannot commit a rejected draft", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)
		require.NoError(t, draft.Reject("bad"))

		err = draft.MarkCommitted(1)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidState(err))
	})

	t.Run("zero sequence is invalid", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		err = draft.MarkCommitted(0)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestReconstructDraft(t *testing.T) {
	t.Run("committed draft requires a ledger reference", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		_, err = ReconstructDraft(
			draft.ID(), StatusCommitted, draft.Items(), "ref", "", 0,
			draft.CreatedAt(), draft.UpdatedAt(), 2,
		)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown status is invalid", func(t *testing.T) {
		draft, err := NewDraft(sampleItems(t), "ref")
		require.NoError(t, err)

		_, err = ReconstructDraft(
			draft.ID(), DraftStatus("ARCHIVED"), draft.Items(), "ref", "", 0,
			draft.CreatedAt(), draft.UpdatedAt(), 1,
		)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestDraftStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCommitted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}
