package ports

import (
	"context"

	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	"github.com/sakettamrakar/eatclub/domain/events"
)

// DraftRepository defines the interface for draft session persistence.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DraftRepository interface {
	// Save persists a new draft
	Save(ctx context.Context, draft *entities.Draft) error

	// GetByID retrieves a draft by its ID
	GetByID(ctx context.Context, id valueobjects.DraftID) (*entities.Draft, error)

	// ListByStatus retrieves drafts in a status, ordered by creation time.
	// Each call restarts the scan; no cursor state is retained between calls.
	ListByStatus(ctx context.Context, status entities.DraftStatus) ([]*entities.Draft, error)

	// Update persists draft mutations. The write is rejected when the stored
	// revision no longer matches expectedRevision.
	Update(ctx context.Context, draft *entities.Draft, expectedRevision int) error

	// Delete removes a draft. Exists for operational tooling and tests only;
	// the service API never deletes drafts.
	Delete(ctx context.Context, id valueobjects.DraftID) error
}

// LedgerStore defines the interface for the append-only inventory ledger.
// Entries are assigned strictly increasing sequence numbers and are never
// updated or removed once written.
type LedgerStore interface {
	// Append writes a new entry derived from a draft's frozen item snapshot
	// and returns it with its assigned sequence number
	Append(ctx context.Context, sourceDraftID valueobjects.DraftID, items []valueobjects.LineItem, actor string) (*entities.LedgerEntry, error)

	// GetBySeq retrieves an entry by its sequence number
	GetBySeq(ctx context.Context, seq uint64) (*entities.LedgerEntry, error)

	// ListAll retrieves all entries in sequence order, for audit and reporting
	ListAll(ctx context.Context) ([]*entities.LedgerEntry, error)

	// FindBySourceDraft retrieves the entry a draft produced, if any.
	// Returns a NotFound error when no entry exists for the draft. This is
	// the recovery index the commit coordinator scans before appending.
	FindBySourceDraft(ctx context.Context, draftID valueobjects.DraftID) (*entities.LedgerEntry, error)
}

// Lock represents an acquired per-draft exclusive lock
type Lock interface {
	// Release releases the lock
	Release(ctx context.Context) error
}

// DraftLocker serializes mutations per draft ID. Locks on different draft
// IDs never contend with each other.
type DraftLocker interface {
	// Acquire blocks until the per-draft lock is held, the context is
	// cancelled, or the locker's timeout elapses
	Acquire(ctx context.Context, draftID valueobjects.DraftID) (Lock, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// RawCapture is the structured output of the external capture collaborator
// (OCR, email parsing, manual entry). The service treats it as untrusted
// input and runs its own validation.
type RawCapture struct {
	SourceRef string
	Items     []valueobjects.LineItem
}

// CaptureProvider supplies structured captures from raw capture data.
// Implementations live outside the core; the core only consumes the result.
type CaptureProvider interface {
	// Process extracts structured line items from raw capture bytes
	Process(ctx context.Context, data []byte, sourceRef string) (*RawCapture, error)
}
