package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakettamrakar/eatclub/domain/config"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	"github.com/sakettamrakar/eatclub/domain/events"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// DraftStatus represents the state of a draft session
type DraftStatus string

const (
	StatusPending   DraftStatus = "PENDING"
	StatusCommitted DraftStatus = "COMMITTED"
	StatusRejected  DraftStatus = "REJECTED"
)

// IsTerminal reports whether no further transition exists from the status
func (s DraftStatus) IsTerminal() bool {
	return s == StatusCommitted || s == StatusRejected
}

// IsValid reports whether the status is one of the known states
func (s DraftStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCommitted, StatusRejected:
		return true
	}
	return false
}

// Draft is the aggregate for one invoice draft session.
// Items stay mutable while the draft is PENDING; once the draft reaches a
// terminal status the item set is frozen.
type Draft struct {
	// Private fields ensure encapsulation
	id                 valueobjects.DraftID
	status             DraftStatus
	items              []valueobjects.LineItem
	sourceRef          string
	rejectReason       string
	committedLedgerSeq uint64
	createdAt          time.Time
	updatedAt          time.Time
	revision           int

	// Domain events that occurred during this aggregate's lifetime
	events []events.DomainEvent
}

// NewDraft creates a new pending draft with full business rule validation
func NewDraft(items []valueobjects.LineItem, sourceRef string) (*Draft, error) {
	return NewDraftWithConfig(items, sourceRef, config.DefaultDomainConfig())
}

// NewDraftWithConfig creates a new pending draft with configuration
func NewDraftWithConfig(items []valueobjects.LineItem, sourceRef string, cfg *config.DomainConfig) (*Draft, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if err := validateItemsAgainst(items, cfg); err != nil {
		return nil, err
	}
	if len(sourceRef) > cfg.MaxSourceRefLength {
		return nil, pkgerrors.NewValidationError("source reference is too long")
	}

	now := time.Now().UTC()
	draft := &Draft{
		id:        valueobjects.NewDraftID(),
		status:    StatusPending,
		items:     valueobjects.CopyItems(items),
		sourceRef: strings.TrimSpace(sourceRef),
		createdAt: now,
		updatedAt: now,
		revision:  1,
		events:    []events.DomainEvent{},
	}

	draft.addEvent(events.NewDraftCreated(draft.id, draft.sourceRef, len(items), now))

	return draft, nil
}

// validateItemsAgainst runs item validation plus the configured limits
func validateItemsAgainst(items []valueobjects.LineItem, cfg *config.DomainConfig) error {
	if err := valueobjects.ValidateItems(items); err != nil {
		return err
	}
	if len(items) > cfg.MaxItemsPerDraft {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("draft exceeds maximum of %d items", cfg.MaxItemsPerDraft))
	}
	for _, item := range items {
		if len(item.Name) > cfg.MaxItemNameLength {
			return pkgerrors.NewValidationError(
				fmt.Sprintf("item name exceeds maximum length of %d", cfg.MaxItemNameLength))
		}
	}
	return nil
}

// ReconstructDraft reconstructs a draft from repository data with preserved timestamps
func ReconstructDraft(
	id valueobjects.DraftID,
	status DraftStatus,
	items []valueobjects.LineItem,
	sourceRef string,
	rejectReason string,
	committedLedgerSeq uint64,
	createdAt, updatedAt time.Time,
	revision int,
) (*Draft, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("draft ID cannot be empty")
	}
	if !status.IsValid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown draft status %q", status))
	}
	if status == StatusCommitted && committedLedgerSeq == 0 {
		return nil, pkgerrors.NewValidationError("committed draft must reference a ledger entry")
	}

	return &Draft{
		id:                 id,
		status:             status,
		items:              valueobjects.CopyItems(items),
		sourceRef:          sourceRef,
		rejectReason:       rejectReason,
		committedLedgerSeq: committedLedgerSeq,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
		revision:           revision,
		events:             []events.DomainEvent{},
	}, nil
}

// ID returns the draft's unique identifier
func (d *Draft) ID() valueobjects.DraftID {
	return d.id
}

// Status returns the draft's current status
func (d *Draft) Status() DraftStatus {
	return d.status
}

// Items returns a copy of the draft's line items
func (d *Draft) Items() []valueobjects.LineItem {
	return valueobjects.CopyItems(d.items)
}

// SourceRef returns the opaque reference to the originating capture
func (d *Draft) SourceRef() string {
	return d.sourceRef
}

// RejectReason returns the recorded rejection reason, if any
func (d *Draft) RejectReason() string {
	return d.rejectReason
}

// CommittedLedgerSeq returns the sequence of the ledger entry this draft
// produced, or zero while the draft is not committed
func (d *Draft) CommittedLedgerSeq() uint64 {
	return d.committedLedgerSeq
}

// CreatedAt returns when the draft was created
func (d *Draft) CreatedAt() time.Time {
	return d.createdAt
}

// UpdatedAt returns when the draft was last updated
func (d *Draft) UpdatedAt() time.Time {
	return d.updatedAt
}

// Revision returns the draft's revision for optimistic locking
func (d *Draft) Revision() int {
	return d.revision
}

// ReplaceItems replaces the item set of a pending draft
func (d *Draft) ReplaceItems(items []valueobjects.LineItem) error {
	return d.ReplaceItemsWithConfig(items, config.DefaultDomainConfig())
}

// ReplaceItemsWithConfig replaces the item set with configuration
func (d *Draft) ReplaceItemsWithConfig(items []valueobjects.LineItem, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if d.status != StatusPending {
		return pkgerrors.NewInvalidStateError(
			fmt.Sprintf("cannot edit draft in status %s", d.status))
	}

	if err := validateItemsAgainst(items, cfg); err != nil {
		return err
	}

	d.items = valueobjects.CopyItems(items)
	d.updatedAt = time.Now().UTC()
	d.revision++

	d.addEvent(events.NewDraftItemsEdited(d.id, len(items), d.updatedAt))

	return nil
}

// Reject transitions the draft to REJECTED. Rejecting an already rejected
// draft is a no-op; rejecting a committed draft is illegal.
func (d *Draft) Reject(reason string) error {
	if d.status == StatusRejected {
		return nil // Already rejected
	}
	if d.status == StatusCommitted {
		return pkgerrors.NewInvalidStateError("cannot reject a committed draft")
	}

	d.status = StatusRejected
	d.rejectReason = reason
	d.updatedAt = time.Now().UTC()
	d.revision++

	d.addEvent(events.NewDraftRejected(d.id, reason, d.updatedAt))

	return nil
}

// MarkCommitted transitions the draft to COMMITTED with a back-reference to
// the ledger entry it produced. Marking an already committed draft with the
// same sequence is a no-op.
func (d *Draft) MarkCommitted(ledgerSeq uint64) error {
	if ledgerSeq == 0 {
		return pkgerrors.NewValidationError("ledger sequence must be positive")
	}
	if d.status == StatusCommitted {
		if d.committedLedgerSeq != ledgerSeq {
			return pkgerrors.NewInvalidStateError(
				fmt.Sprintf("draft already committed to ledger entry %d", d.committedLedgerSeq))
		}
		return nil // Already committed to this entry
	}
	if d.status == StatusRejected {
		return pkgerrors.NewInvalidStateError("cannot commit a rejected draft")
	}

	d.status = StatusCommitted
	d.committedLedgerSeq = ledgerSeq
	d.updatedAt = time.Now().UTC()
	d.revision++

	d.addEvent(events.NewDraftCommitted(d.id, ledgerSeq, len(d.items), d.updatedAt))

	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (d *Draft) GetUncommittedEvents() []events.DomainEvent {
	return d.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (d *Draft) MarkEventsAsCommitted() {
	d.events = []events.DomainEvent{}
}

// addEvent adds a domain event to the uncommitted list
func (d *Draft) addEvent(event events.DomainEvent) {
	d.events = append(d.events, event)
}
