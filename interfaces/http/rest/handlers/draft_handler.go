package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/services"
	"github.com/sakettamrakar/eatclub/domain/core/entities"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	"github.com/sakettamrakar/eatclub/pkg/common"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/utils"
)

const maxRequestBody = 1 << 20 // 1 MiB

// DraftHandler handles draft session HTTP requests
type DraftHandler struct {
	service      *services.IngestionService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(service *services.IngestionService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// LineItemRequest is the wire form of a line item
type LineItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=200"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string  `json:"unit" validate:"required,oneof=G KG ML L PCS"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
}

// CreateDraftRequest represents the request body for creating a draft
type CreateDraftRequest struct {
	SourceRef string            `json:"source_ref,omitempty" validate:"omitempty,max=512"`
	Items     []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// EditDraftRequest represents the request body for replacing draft items
type EditDraftRequest struct {
	Items []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RejectDraftRequest represents the request body for rejecting a draft
type RejectDraftRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ConfirmDraftRequest represents the request body for confirming a draft
type ConfirmDraftRequest struct {
	Actor string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

// DraftResponse is the wire form of a draft session
type DraftResponse struct {
	ID                 string                  `json:"id"`
	Status             string                  `json:"status"`
	Items              []valueobjects.LineItem `json:"items"`
	SourceRef          string                  `json:"source_ref,omitempty"`
	RejectReason       string                  `json:"reject_reason,omitempty"`
	CommittedLedgerSeq uint64                  `json:"committed_ledger_seq,omitempty"`
	CreatedAt          string                  `json:"created_at"`
	UpdatedAt          string                  `json:"updated_at"`
	Revision           int                     `json:"revision"`
}

// CreateDraft handles POST /api/v1/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	draft, err := h.service.IngestDirect(r.Context(), toLineItems(req.Items), req.SourceRef)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toDraftResponse(draft))
}

// ListDrafts handles GET /api/v1/drafts with an optional status filter.
// Without a filter it lists pending drafts, oldest first.
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	status := entities.StatusPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = entities.DraftStatus(raw)
	}

	drafts, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	responses := make([]DraftResponse, len(drafts))
	for i, draft := range drafts {
		responses[i] = toDraftResponse(draft)
	}

	common.RespondWithMeta(w, http.StatusOK, responses, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Count:     len(responses),
	})
}

// GetDraft handles GET /api/v1/drafts/{draftID}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, err := h.draftID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	draft, err := h.service.GetDraft(r.Context(), id)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toDraftResponse(draft))
}

// EditDraft handles PUT /api/v1/drafts/{draftID}/items
func (h *DraftHandler) EditDraft(w http.ResponseWriter, r *http.Request) {
	id, err := h.draftID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req EditDraftRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	draft, err := h.service.EditDraft(r.Context(), id, toLineItems(req.Items))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toDraftResponse(draft))
}

// RejectDraft handles POST /api/v1/drafts/{draftID}/reject
func (h *DraftHandler) RejectDraft(w http.ResponseWriter, r *http.Request) {
	id, err := h.draftID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req RejectDraftRequest
	if r.ContentLength > 0 {
		if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
			h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}

	draft, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toDraftResponse(draft))
}

// ConfirmDraft handles POST /api/v1/drafts/{draftID}/confirm
func (h *DraftHandler) ConfirmDraft(w http.ResponseWriter, r *http.Request) {
	id, err := h.draftID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req ConfirmDraftRequest
	if r.ContentLength > 0 {
		if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
			h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}

	entry, err := h.service.Confirm(r.Context(), id, req.Actor)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toLedgerEntryResponse(entry))
}

// CreateEntry handles POST /api/v1/entries, the manual direct-entry path
func (h *DraftHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	entry, err := h.service.IngestAndCommit(r.Context(), toLineItems(req.Items), req.SourceRef, "")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toLedgerEntryResponse(entry))
}

func (h *DraftHandler) draftID(r *http.Request) (valueobjects.DraftID, error) {
	raw := chi.URLParam(r, "draftID")
	id, err := valueobjects.NewDraftIDFromString(raw)
	if err != nil {
		return valueobjects.DraftID{}, pkgerrors.NewValidationError("invalid draft ID")
	}
	return id, nil
}

func toLineItems(reqs []LineItemRequest) []valueobjects.LineItem {
	items := make([]valueobjects.LineItem, len(reqs))
	for i, req := range reqs {
		items[i] = valueobjects.LineItem{
			Name:     req.Name,
			Quantity: req.Quantity,
			Unit:     valueobjects.Unit(req.Unit),
			UnitCost: req.UnitCost,
		}
	}
	return items
}

func toDraftResponse(draft *entities.Draft) DraftResponse {
	return DraftResponse{
		ID:                 draft.ID().String(),
		Status:             string(draft.Status()),
		Items:              draft.Items(),
		SourceRef:          draft.SourceRef(),
		RejectReason:       draft.RejectReason(),
		CommittedLedgerSeq: draft.CommittedLedgerSeq(),
		CreatedAt:          draft.CreatedAt().Format(time.RFC3339),
		UpdatedAt:          draft.UpdatedAt().Format(time.RFC3339),
		Revision:           draft.Revision(),
	}
}
