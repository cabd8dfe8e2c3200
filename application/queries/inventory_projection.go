package queries

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// InventoryLine is one aggregated position in the inventory projection.
// Quantities are expressed in the item's base unit (G, ML or PCS).
type InventoryLine struct {
	Name      string            `json:"name"`
	Quantity  float64           `json:"quantity"`
	Unit      valueobjects.Unit `json:"unit"`
	TotalCost float64           `json:"total_cost"`
	Entries   int               `json:"entries"`
}

// InventoryProjection folds the committed ledger into current stock levels.
// The ledger is the single source of truth; the projection is recomputed
// from scratch on every query and holds no state of its own.
type InventoryProjection struct {
	ledger ports.LedgerStore
	logger *zap.Logger
}

// NewInventoryProjection creates the projection over a ledger store
func NewInventoryProjection(ledger ports.LedgerStore, logger *zap.Logger) *InventoryProjection {
	return &InventoryProjection{
		ledger: ledger,
		logger: logger.Named("inventory-projection"),
	}
}

// Compute aggregates all ledger entries into per-item stock lines.
// Items are merged case-insensitively by name and base unit, so "Milk 1 L"
// and "milk 500 ML" fold into a single 1500 ML line.
func (p *InventoryProjection) Compute(ctx context.Context) ([]InventoryLine, error) {
	entries, err := p.ledger.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read ledger")
	}

	type lineKey struct {
		name string
		unit valueobjects.Unit
	}

	lines := make(map[lineKey]*InventoryLine)
	for _, entry := range entries {
		for _, item := range entry.Items() {
			qty, base := item.NormalizedQuantity()
			key := lineKey{name: strings.ToLower(item.Name), unit: base}

			line, ok := lines[key]
			if !ok {
				line = &InventoryLine{Name: item.Name, Unit: base}
				lines[key] = line
			}
			line.Quantity += qty
			line.TotalCost += item.Quantity * item.UnitCost
			line.Entries++
		}
	}

	result := make([]InventoryLine, 0, len(lines))
	for _, line := range lines {
		result = append(result, *line)
	}
	sort.Slice(result, func(i, j int) bool {
		ni, nj := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if ni != nj {
			return ni < nj
		}
		return result[i].Unit < result[j].Unit
	})

	p.logger.Debug("inventory projection computed",
		zap.Int("ledger_entries", len(entries)),
		zap.Int("inventory_lines", len(result)),
	)

	return result, nil
}
