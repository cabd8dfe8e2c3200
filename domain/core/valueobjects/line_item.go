package valueobjects

import (
	"fmt"
	"strings"

	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// Unit is a standardized unit of measurement for line items
type Unit string

const (
	// Weight
	UnitGram     Unit = "G"
	UnitKilogram Unit = "KG"

	// Volume
	UnitMilliliter Unit = "ML"
	UnitLiter      Unit = "L"

	// Count
	UnitPiece Unit = "PCS"
)

// knownUnits is the set of units the service accepts
var knownUnits = map[Unit]bool{
	UnitGram:       true,
	UnitKilogram:   true,
	UnitMilliliter: true,
	UnitLiter:      true,
	UnitPiece:      true,
}

// IsKnown reports whether the unit is one of the standardized units
func (u Unit) IsKnown() bool {
	return knownUnits[u]
}

// Normalize returns the base unit and the multiplier to convert a
// quantity expressed in u into that base unit (KG -> G, L -> ML)
func (u Unit) Normalize() (Unit, float64) {
	switch u {
	case UnitKilogram:
		return UnitGram, 1000
	case UnitLiter:
		return UnitMilliliter, 1000
	default:
		return u, 1
	}
}

// LineItem is an immutable value object describing one line of an invoice draft
type LineItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
	UnitCost float64 `json:"unit_cost"`
}

// NewLineItem creates a validated line item
func NewLineItem(name string, quantity float64, unit Unit, unitCost float64) (LineItem, error) {
	item := LineItem{
		Name:     strings.TrimSpace(name),
		Quantity: quantity,
		Unit:     unit,
		UnitCost: unitCost,
	}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// Validate checks the line item invariants
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.Name) == "" {
		return pkgerrors.NewValidationError("item name cannot be empty")
	}
	if li.Quantity <= 0 {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("item %q must have a positive quantity", li.Name))
	}
	if !li.Unit.IsKnown() {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("item %q has unknown unit %q", li.Name, li.Unit))
	}
	if li.UnitCost < 0 {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("item %q cannot have a negative unit cost", li.Name))
	}
	return nil
}

// NormalizedQuantity returns the quantity converted to the item's base unit
func (li LineItem) NormalizedQuantity() (float64, Unit) {
	base, factor := li.Unit.Normalize()
	return li.Quantity * factor, base
}

// Equals checks if two line items are equal
func (li LineItem) Equals(other LineItem) bool {
	return li == other
}

// ValidateItems validates an ordered item set as a whole
func ValidateItems(items []LineItem) error {
	if len(items) == 0 {
		return pkgerrors.NewValidationError("draft must contain at least one item")
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CopyItems returns a defensive copy of an item slice
func CopyItems(items []LineItem) []LineItem {
	copied := make([]LineItem, len(items))
	copy(copied, items)
	return copied
}
