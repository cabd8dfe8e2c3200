package events

import (
	"time"

	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
)

// SourceIngestion identifies this service as the event source
const SourceIngestion = "eatclub.ingestion"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Draft lifecycle events

// DraftCreated is raised when a new draft session is ingested
type DraftCreated struct {
	BaseEvent
	DraftID   valueobjects.DraftID `json:"draft_id"`
	SourceRef string               `json:"source_ref"`
	ItemCount int                  `json:"item_count"`
}

// NewDraftCreated creates a DraftCreated event
func NewDraftCreated(draftID valueobjects.DraftID, sourceRef string, itemCount int, timestamp time.Time) DraftCreated {
	return DraftCreated{
		BaseEvent: BaseEvent{
			AggregateID: draftID.String(),
			EventType:   "draft.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		DraftID:   draftID,
		SourceRef: sourceRef,
		ItemCount: itemCount,
	}
}

// DraftItemsEdited is raised when a pending draft's items are replaced
type DraftItemsEdited struct {
	BaseEvent
	DraftID   valueobjects.DraftID `json:"draft_id"`
	ItemCount int                  `json:"item_count"`
}

// NewDraftItemsEdited creates a DraftItemsEdited event
func NewDraftItemsEdited(draftID valueobjects.DraftID, itemCount int, timestamp time.Time) DraftItemsEdited {
	return DraftItemsEdited{
		BaseEvent: BaseEvent{
			AggregateID: draftID.String(),
			EventType:   "draft.items_edited",
			Timestamp:   timestamp,
			Version:     1,
		},
		DraftID:   draftID,
		ItemCount: itemCount,
	}
}

// DraftRejected is raised when a draft is rejected by the reviewer
type DraftRejected struct {
	BaseEvent
	DraftID valueobjects.DraftID `json:"draft_id"`
	Reason  string               `json:"reason"`
}

// NewDraftRejected creates a DraftRejected event
func NewDraftRejected(draftID valueobjects.DraftID, reason string, timestamp time.Time) DraftRejected {
	return DraftRejected{
		BaseEvent: BaseEvent{
			AggregateID: draftID.String(),
			EventType:   "draft.rejected",
			Timestamp:   timestamp,
			Version:     1,
		},
		DraftID: draftID,
		Reason:  reason,
	}
}

// DraftCommitted is raised when a draft is promoted into the ledger
type DraftCommitted struct {
	BaseEvent
	DraftID   valueobjects.DraftID `json:"draft_id"`
	LedgerSeq uint64               `json:"ledger_seq"`
	ItemCount int                  `json:"item_count"`
}

// NewDraftCommitted creates a DraftCommitted event
func NewDraftCommitted(draftID valueobjects.DraftID, ledgerSeq uint64, itemCount int, timestamp time.Time) DraftCommitted {
	return DraftCommitted{
		BaseEvent: BaseEvent{
			AggregateID: draftID.String(),
			EventType:   "draft.committed",
			Timestamp:   timestamp,
			Version:     1,
		},
		DraftID:   draftID,
		LedgerSeq: ledgerSeq,
		ItemCount: itemCount,
	}
}
