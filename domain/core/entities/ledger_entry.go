package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// LedgerEntry is an immutable record of a committed draft. Entries are only
// ever appended to the ledger; nothing updates or removes them.
type LedgerEntry struct {
	seq           uint64
	entryID       string
	sourceDraftID valueobjects.DraftID
	items         []valueobjects.LineItem
	actor         string
	committedAt   time.Time
}

// NewLedgerEntry builds an entry from a draft's frozen item snapshot.
// The item slice is copied; the entry never shares state with the draft.
func NewLedgerEntry(seq uint64, sourceDraftID valueobjects.DraftID, items []valueobjects.LineItem, actor string) (*LedgerEntry, error) {
	if seq == 0 {
		return nil, pkgerrors.NewValidationError("ledger sequence must be positive")
	}
	if sourceDraftID.IsZero() {
		return nil, pkgerrors.NewValidationError("source draft ID cannot be empty")
	}
	if err := valueobjects.ValidateItems(items); err != nil {
		return nil, err
	}
	if actor == "" {
		actor = "user"
	}

	return &LedgerEntry{
		seq:           seq,
		entryID:       uuid.New().String(),
		sourceDraftID: sourceDraftID,
		items:         valueobjects.CopyItems(items),
		actor:         actor,
		committedAt:   time.Now().UTC(),
	}, nil
}

// ReconstructLedgerEntry reconstructs an entry from repository data
func ReconstructLedgerEntry(
	seq uint64,
	entryID string,
	sourceDraftID valueobjects.DraftID,
	items []valueobjects.LineItem,
	actor string,
	committedAt time.Time,
) (*LedgerEntry, error) {
	if seq == 0 {
		return nil, pkgerrors.NewValidationError("ledger sequence must be positive")
	}
	if entryID == "" {
		return nil, pkgerrors.NewValidationError("entry ID cannot be empty")
	}
	if sourceDraftID.IsZero() {
		return nil, pkgerrors.NewValidationError("source draft ID cannot be empty")
	}

	return &LedgerEntry{
		seq:           seq,
		entryID:       entryID,
		sourceDraftID: sourceDraftID,
		items:         valueobjects.CopyItems(items),
		actor:         actor,
		committedAt:   committedAt,
	}, nil
}

// Seq returns the entry's monotonically increasing sequence number
func (e *LedgerEntry) Seq() uint64 {
	return e.seq
}

// EntryID returns the entry's globally unique identifier
func (e *LedgerEntry) EntryID() string {
	return e.entryID
}

// SourceDraftID returns the draft that produced this entry
func (e *LedgerEntry) SourceDraftID() valueobjects.DraftID {
	return e.sourceDraftID
}

// Items returns a copy of the committed line items
func (e *LedgerEntry) Items() []valueobjects.LineItem {
	return valueobjects.CopyItems(e.items)
}

// Actor returns the entity that confirmed the draft
func (e *LedgerEntry) Actor() string {
	return e.actor
}

// CommittedAt returns when the entry was written
func (e *LedgerEntry) CommittedAt() time.Time {
	return e.committedAt
}
