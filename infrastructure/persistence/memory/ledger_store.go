package memory

import (
	"context"
	"sync"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// LedgerStore is an in-memory append-only ledger for local development and
// tests. Sequence numbers are assigned under the store mutex so they are
// strictly increasing without gaps even under concurrent appends.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []*entities.LedgerEntry
	byDraft map[string]*entities.LedgerEntry
	nextSeq uint64
}

// NewLedgerStore creates an empty in-memory ledger
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		byDraft: make(map[string]*entities.LedgerEntry),
		nextSeq: 1,
	}
}

var _ ports.LedgerStore = (*LedgerStore)(nil)

// Append writes a new entry and assigns it the next sequence number
func (s *LedgerStore) Append(ctx context.Context, sourceDraftID valueobjects.DraftID, items []valueobjects.LineItem, actor string) (*entities.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("append ledger entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := entities.NewLedgerEntry(s.nextSeq, sourceDraftID, items, actor)
	if err != nil {
		return nil, err
	}

	s.nextSeq++
	s.entries = append(s.entries, entry)
	s.byDraft[sourceDraftID.String()] = entry
	return entry, nil
}

// GetBySeq retrieves an entry by sequence number
func (s *LedgerStore) GetBySeq(ctx context.Context, seq uint64) (*entities.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("get ledger entry", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.Seq() == seq {
			return entry, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("ledger entry")
}

// ListAll retrieves all entries in sequence order
func (s *LedgerStore) ListAll(ctx context.Context) ([]*entities.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("list ledger entries", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entities.LedgerEntry, len(s.entries))
	copy(result, s.entries)
	return result, nil
}

// FindBySourceDraft retrieves the entry a draft produced, if any
func (s *LedgerStore) FindBySourceDraft(ctx context.Context, draftID valueobjects.DraftID) (*entities.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("find ledger entry", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.byDraft[draftID.String()]
	if !exists {
		return nil, pkgerrors.NewNotFoundError("ledger entry")
	}
	return entry, nil
}
