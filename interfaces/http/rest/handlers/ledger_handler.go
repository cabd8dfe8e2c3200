package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/application/queries"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	"github.com/sakettamrakar/eatclub/pkg/common"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/utils"
)

// LedgerHandler handles ledger and inventory HTTP requests
type LedgerHandler struct {
	ledger       ports.LedgerStore
	projection   *queries.InventoryProjection
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger ports.LedgerStore, projection *queries.InventoryProjection, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger:       ledger,
		projection:   projection,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// LedgerEntryResponse is the wire form of a ledger entry
type LedgerEntryResponse struct {
	Seq           uint64                  `json:"seq"`
	EntryID       string                  `json:"entry_id"`
	SourceDraftID string                  `json:"source_draft_id"`
	Items         []valueobjects.LineItem `json:"items"`
	Actor         string                  `json:"actor"`
	CommittedAt   string                  `json:"committed_at"`
}

// ListEntries handles GET /api/v1/ledger
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListAll(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = toLedgerEntryResponse(entry)
	}

	common.RespondWithMeta(w, http.StatusOK, responses, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Count:     len(responses),
	})
}

// GetEntry handles GET /api/v1/ledger/{seq}
func (h *LedgerHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "seq")
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || seq == 0 {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid ledger sequence"))
		return
	}

	entry, err := h.ledger.GetBySeq(r.Context(), seq)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toLedgerEntryResponse(entry))
}

// GetInventory handles GET /api/v1/inventory
func (h *LedgerHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	lines, err := h.projection.Compute(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, lines, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Count:     len(lines),
	})
}

func toLedgerEntryResponse(entry *entities.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		Seq:           entry.Seq(),
		EntryID:       entry.EntryID(),
		SourceDraftID: entry.SourceDraftID().String(),
		Items:         entry.Items(),
		Actor:         entry.Actor(),
		CommittedAt:   entry.CommittedAt().Format(time.RFC3339),
	}
}
