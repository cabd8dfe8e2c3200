package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/queries"
	"github.com/sakettamrakar/eatclub/application/services"
	"github.com/sakettamrakar/eatclub/infrastructure/capture"
	"github.com/sakettamrakar/eatclub/infrastructure/persistence/memory"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/observability"
	"github.com/sakettamrakar/eatclub/pkg/ratelimit"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T, limiter ratelimit.Limiter) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	drafts := memory.NewDraftStore()
	ledger := memory.NewLedgerStore()
	locker := memory.NewDraftLocker(5 * time.Second)
	audit := observability.NewAuditLogger(logger)
	metrics := observability.NewMetrics("test", nil)

	coordinator := services.NewCommitCoordinator(drafts, ledger, locker, nil, audit, metrics, 5*time.Second, logger)
	ingestion := services.NewIngestionService(drafts, coordinator, locker, capture.NewMockProvider(logger), nil, audit, metrics, nil, logger)
	projection := queries.NewInventoryProjection(ledger, logger)
	errorHandler := pkgerrors.NewErrorHandler(logger, false)

	router := NewRouter(ingestion, ledger, projection, limiter, nil, errorHandler, false, logger)
	return router.Setup()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "response body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func validDraftBody() map[string]interface{} {
	return map[string]interface{}{
		"source_ref": "invoice-99",
		"items": []map[string]interface{}{
			{"name": "Rice", "quantity": 10, "unit": "KG", "unit_cost": 75},
			{"name": "Milk", "quantity": 4, "unit": "L", "unit_cost": 60},
		},
	}
}

type draftPayload struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CommittedLedgerSeq uint64 `json:"committed_ledger_seq"`
	Revision           int    `json:"revision"`
}

type entryPayload struct {
	Seq           uint64 `json:"seq"`
	SourceDraftID string `json:"source_draft_id"`
	Actor         string `json:"actor"`
}

func createDraft(t *testing.T, handler http.Handler) draftPayload {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/drafts", validDraftBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var draft draftPayload
	decodeData(t, rec, &draft)
	return draft
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateDraft(t *testing.T) {
	handler := newTestHandler(t, nil)

	t.Run("valid request creates a pending draft", func(t *testing.T) {
		draft := createDraft(t, handler)
		assert.Equal(t, "PENDING", draft.Status)
		assert.NotEmpty(t, draft.ID)
		assert.Equal(t, 1, draft.Revision)
	})

	t.Run("empty item set is rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/drafts", map[string]interface{}{
			"items": []map[string]interface{}{},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown unit is rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/drafts", map[string]interface{}{
			"items": []map[string]interface{}{
				{"name": "Rice", "quantity": 1, "unit": "GALLON", "unit_cost": 10},
			},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetDraft(t *testing.T) {
	handler := newTestHandler(t, nil)
	draft := createDraft(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/drafts/"+draft.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got draftPayload
	decodeData(t, rec, &got)
	assert.Equal(t, draft.ID, got.ID)

	t.Run("unknown ID is 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/drafts/4fc2a1c0-0000-4000-8000-000000000000", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed ID is 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/drafts/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	handler := newTestHandler(t, nil)
	draft := createDraft(t, handler)

	// Edit
	rec := doJSON(t, handler, http.MethodPut, "/api/v1/drafts/"+draft.ID+"/items", map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "Sugar", "quantity": 2, "unit": "KG", "unit_cost": 45},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var edited draftPayload
	decodeData(t, rec, &edited)
	assert.Equal(t, 2, edited.Revision)

	// Confirm
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/confirm", map[string]interface{}{
		"actor": "reviewer",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entry entryPayload
	decodeData(t, rec, &entry)
	assert.Equal(t, uint64(1), entry.Seq)
	assert.Equal(t, draft.ID, entry.SourceDraftID)
	assert.Equal(t, "reviewer", entry.Actor)

	// Confirm again returns the same entry
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var repeat entryPayload
	decodeData(t, rec, &repeat)
	assert.Equal(t, entry.Seq, repeat.Seq)

	// Editing after commit is a state conflict
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/drafts/"+draft.ID+"/items", map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "Salt", "quantity": 1, "unit": "KG", "unit_cost": 20},
		},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Rejecting after commit is a state conflict
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/reject", map[string]interface{}{
		"reason": "too late",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRejectOverHTTP(t *testing.T) {
	handler := newTestHandler(t, nil)
	draft := createDraft(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/reject", map[string]interface{}{
		"reason": "blurry scan",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var rejected draftPayload
	decodeData(t, rec, &rejected)
	assert.Equal(t, "REJECTED", rejected.Status)

	// Repeat rejection still succeeds
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/reject", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Confirming a rejected draft is a state conflict
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestManualEntryOverHTTP(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/entries", validDraftBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry entryPayload
	decodeData(t, rec, &entry)
	assert.Equal(t, uint64(1), entry.Seq)

	// The backing draft is committed and listed as such
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/drafts?status=COMMITTED", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var committed []draftPayload
	decodeData(t, rec, &committed)
	require.Len(t, committed, 1)
	assert.Equal(t, entry.SourceDraftID, committed[0].ID)
}

func TestLedgerEndpoints(t *testing.T) {
	handler := newTestHandler(t, nil)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/entries", validDraftBody())
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("list returns entries in sequence order", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []entryPayload
		decodeData(t, rec, &entries)
		require.Len(t, entries, 3)
		for i, entry := range entries {
			assert.Equal(t, uint64(i+1), entry.Seq)
		}
	})

	t.Run("get by seq", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger/2", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var entry entryPayload
		decodeData(t, rec, &entry)
		assert.Equal(t, uint64(2), entry.Seq)
	})

	t.Run("missing seq is 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric seq is 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInventoryEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/entries", validDraftBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
	}
	decodeData(t, rec, &lines)
	require.Len(t, lines, 2)

	// Milk 4 L normalizes to 4000 ML, Rice 10 KG to 10000 G
	assert.Equal(t, "Milk", lines[0].Name)
	assert.Equal(t, 4000.0, lines[0].Quantity)
	assert.Equal(t, "ML", lines[0].Unit)
	assert.Equal(t, "Rice", lines[1].Name)
	assert.Equal(t, 10000.0, lines[1].Quantity)
}

func TestRateLimiting(t *testing.T) {
	handler := newTestHandler(t, ratelimit.NewMemoryLimiter(2))

	for i := 0; i < 2; i++ {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health endpoints are outside the limited API surface
	rec = doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListDraftsMeta(t *testing.T) {
	handler := newTestHandler(t, nil)
	createDraft(t, handler)
	createDraft(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Meta    struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 2, envelope.Meta.Count)

	t.Run("invalid status filter is 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/drafts?status=BOGUS", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRequestBodySizeLimit(t *testing.T) {
	handler := newTestHandler(t, nil)

	big := map[string]interface{}{
		"source_ref": "huge",
		"items": []map[string]interface{}{
			{"name": fmt.Sprintf("%01100000d", 1), "quantity": 1, "unit": "PCS", "unit_cost": 1},
		},
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/drafts", big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
