package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

func TestNewLineItem(t *testing.T) {
	t.Run("creates valid item", func(t *testing.T) {
		item, err := NewLineItem("  Basmati Rice  ", 5, UnitKilogram, 82.50)
		require.NoError(t, err)
		assert.Equal(t, "Basmati Rice", item.Name)
		assert.Equal(t, 5.0, item.Quantity)
		assert.Equal(t, UnitKilogram, item.Unit)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewLineItem("   ", 1, UnitPiece, 0)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewLineItem("Milk", 0, UnitLiter, 60)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewLineItem("Milk", -2, UnitLiter, 60)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects unknown unit", func(t *testing.T) {
		_, err := NewLineItem("Milk", 1, Unit("GALLON"), 60)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects negative unit cost", func(t *testing.T) {
		_, err := NewLineItem("Milk", 1, UnitLiter, -5)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("allows zero unit cost", func(t *testing.T) {
		_, err := NewLineItem("Free Sample", 1, UnitPiece, 0)
		assert.NoError(t, err)
	})
}

func TestUnitNormalize(t *testing.T) {
	tests := []struct {
		unit       Unit
		wantBase   Unit
		wantFactor float64
	}{
		{UnitKilogram, UnitGram, 1000},
		{UnitLiter, UnitMilliliter, 1000},
		{UnitGram, UnitGram, 1},
		{UnitMilliliter, UnitMilliliter, 1},
		{UnitPiece, UnitPiece, 1},
	}

	for _, tt := range tests {
		base, factor := tt.unit.Normalize()
		assert.Equal(t, tt.wantBase, base, "unit %s", tt.unit)
		assert.Equal(t, tt.wantFactor, factor, "unit %s", tt.unit)
	}
}

func TestNormalizedQuantity(t *testing.T) {
	item, err := NewLineItem("Milk", 1.5, UnitLiter, 60)
	require.NoError(t, err)

	qty, base := item.NormalizedQuantity()
	assert.Equal(t, 1500.0, qty)
	assert.Equal(t, UnitMilliliter, base)
}

func TestValidateItems(t *testing.T) {
	t.Run("rejects empty set", func(t *testing.T) {
		err := ValidateItems(nil)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects set with one bad item", func(t *testing.T) {
		good, _ := NewLineItem("Rice", 1, UnitKilogram, 80)
		err := ValidateItems([]LineItem{good, {Name: "Bad", Quantity: -1, Unit: UnitGram}})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("accepts valid set", func(t *testing.T) {
		a, _ := NewLineItem("Rice", 1, UnitKilogram, 80)
		b, _ := NewLineItem("Milk", 2, UnitLiter, 60)
		assert.NoError(t, ValidateItems([]LineItem{a, b}))
	})
}

func TestCopyItems(t *testing.T) {
	a, _ := NewLineItem("Rice", 1, UnitKilogram, 80)
	original := []LineItem{a}

	copied := CopyItems(original)
	copied[0].Name = "Changed"

	assert.Equal(t, "Rice", original[0].Name)
}
