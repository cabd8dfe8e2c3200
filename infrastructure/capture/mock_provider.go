package capture

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// MockProvider is a stand-in for a real OCR capture backend. It accepts a
// JSON payload of line items, which keeps the full ingestion path
// exercisable without an external OCR dependency.
type MockProvider struct {
	logger *zap.Logger
}

// NewMockProvider creates the mock capture provider
func NewMockProvider(logger *zap.Logger) ports.CaptureProvider {
	return &MockProvider{
		logger: logger.Named("mock-capture"),
	}
}

// capturePayload is the accepted mock upload format
type capturePayload struct {
	SourceRef string                  `json:"source_ref"`
	Items     []valueobjects.LineItem `json:"items"`
}

// Process decodes the payload into a raw capture. Output is still treated
// as untrusted by the ingestion service; no validation happens here.
func (p *MockProvider) Process(ctx context.Context, data []byte, sourceRef string) (*ports.RawCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewExternalError("capture", err)
	}

	var payload capturePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, pkgerrors.NewValidationError("capture payload is not valid JSON")
	}

	if payload.SourceRef == "" {
		payload.SourceRef = sourceRef
	}

	p.logger.Debug("capture processed",
		zap.String("source_ref", payload.SourceRef),
		zap.Int("item_count", len(payload.Items)),
	)

	return &ports.RawCapture{
		SourceRef: payload.SourceRef,
		Items:     payload.Items,
	}, nil
}
