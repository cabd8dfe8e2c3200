package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// DraftStore is an in-memory draft repository for local development and
// tests. Insertion order is preserved so listings are stable.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*entities.Draft
	order  []string
}

// NewDraftStore creates an empty in-memory draft store
func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]*entities.Draft),
	}
}

var _ ports.DraftRepository = (*DraftStore)(nil)

// Save persists a new draft
func (s *DraftStore) Save(ctx context.Context, draft *entities.Draft) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewStorageError("save draft", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draft.ID().String()
	if _, exists := s.drafts[key]; exists {
		return pkgerrors.NewStorageError("save draft",
			fmt.Errorf("draft %s already exists", key))
	}

	clone, err := cloneDraft(draft)
	if err != nil {
		return err
	}
	s.drafts[key] = clone
	s.order = append(s.order, key)
	return nil
}

// GetByID retrieves a draft by its ID
func (s *DraftStore) GetByID(ctx context.Context, id valueobjects.DraftID) (*entities.Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("get draft", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, exists := s.drafts[id.String()]
	if !exists {
		return nil, pkgerrors.NewNotFoundError("draft")
	}
	return cloneDraft(draft)
}

// ListByStatus retrieves drafts in a status in insertion order.
// Every call restarts the scan from the beginning.
func (s *DraftStore) ListByStatus(ctx context.Context, status entities.DraftStatus) ([]*entities.Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("list drafts", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entities.Draft, 0)
	for _, key := range s.order {
		draft := s.drafts[key]
		if draft.Status() != status {
			continue
		}
		clone, err := cloneDraft(draft)
		if err != nil {
			return nil, err
		}
		result = append(result, clone)
	}
	return result, nil
}

// Update persists draft mutations with an optimistic revision check
func (s *DraftStore) Update(ctx context.Context, draft *entities.Draft, expectedRevision int) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewStorageError("update draft", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draft.ID().String()
	current, exists := s.drafts[key]
	if !exists {
		return pkgerrors.NewNotFoundError("draft")
	}
	if current.Revision() != expectedRevision {
		return pkgerrors.NewStorageError("update draft",
			fmt.Errorf("revision conflict: have %d, expected %d", current.Revision(), expectedRevision))
	}

	clone, err := cloneDraft(draft)
	if err != nil {
		return err
	}
	s.drafts[key] = clone
	return nil
}

// Delete removes a draft
func (s *DraftStore) Delete(ctx context.Context, id valueobjects.DraftID) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewStorageError("delete draft", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	if _, exists := s.drafts[key]; !exists {
		return pkgerrors.NewNotFoundError("draft")
	}
	delete(s.drafts, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// cloneDraft makes a deep copy so callers never share aggregate state
// with the store
func cloneDraft(d *entities.Draft) (*entities.Draft, error) {
	return entities.ReconstructDraft(
		d.ID(),
		d.Status(),
		d.Items(),
		d.SourceRef(),
		d.RejectReason(),
		d.CommittedLedgerSeq(),
		d.CreatedAt(),
		d.UpdatedAt(),
		d.Revision(),
	)
}
