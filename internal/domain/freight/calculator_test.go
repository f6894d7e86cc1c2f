package freight

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/catalog"
)

func TestCalculate(t *testing.T) {
	p1, p2 := id.New(), id.New()

	tests := []struct {
		name        string
		lines       []Line
		wantGrams   int64
		wantKg      string
		wantFreight string
	}{
		{
			name:        "empty list",
			lines:       nil,
			wantGrams:   0,
			wantKg:      "0",
			wantFreight: "0",
		},
		{
			name: "two products",
			lines: []Line{
				{ProductID: p1, Quantity: 10, UnitWeightGrams: 50},
				{ProductID: p2, Quantity: 5, UnitWeightGrams: 100},
			},
			wantGrams:   1000,
			wantKg:      "1.3",
			wantFreight: "5.85",
		},
		{
			name: "freight line excluded",
			lines: []Line{
				{ProductID: p1, Quantity: 10, UnitWeightGrams: 50},
				{ProductID: catalog.FreightProductID, Quantity: 1, UnitWeightGrams: 99999},
			},
			wantGrams:   500,
			wantKg:      "0.65",
			wantFreight: "2.925",
		},
		{
			name: "zero quantity contributes nothing",
			lines: []Line{
				{ProductID: p1, Quantity: 0, UnitWeightGrams: 50},
			},
			wantGrams:   0,
			wantKg:      "0",
			wantFreight: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.lines)
			assert.True(t, decimal.NewFromInt(tt.wantGrams).Equal(got.TotalGrams), "grams = %s", got.TotalGrams)
			assert.True(t, decimal.RequireFromString(tt.wantKg).Equal(got.GrossKg), "grossKg = %s", got.GrossKg)
			assert.True(t, decimal.RequireFromString(tt.wantFreight).Equal(got.FreightValue), "freight = %s", got.FreightValue)
		})
	}
}

func TestCalculate_FormulaHoldsForNonSentinelLists(t *testing.T) {
	for q := int64(0); q < 40; q += 7 {
		for g := int64(1); g < 900; g += 113 {
			lines := []Line{{ProductID: id.New(), Quantity: q, UnitWeightGrams: g}, {ProductID: id.New(), Quantity: g, UnitWeightGrams: q}}
			got := Calculate(lines)

			wantKg := decimal.NewFromInt(2 * q * g).Mul(PackagingFactor).Div(decimal.NewFromInt(1000))
			assert.True(t, wantKg.Equal(got.GrossKg))
			assert.True(t, wantKg.Mul(RatePerKg).Equal(got.FreightValue))
			assert.False(t, got.FreightValue.IsNegative())
		}
	}
}

func TestCalculate_LargeQuantityDoesNotWrap(t *testing.T) {
	got := Calculate([]Line{{ProductID: id.New(), Quantity: 5e15, UnitWeightGrams: 2000}})

	assert.True(t, decimal.RequireFromString("10000000000000000000").Equal(got.TotalGrams), "grams = %s", got.TotalGrams)
	assert.True(t, decimal.RequireFromString("13000000000000000").Equal(got.GrossKg), "grossKg = %s", got.GrossKg)
	assert.True(t, got.FreightValue.IsPositive())
}

func TestCalculate_Idempotent(t *testing.T) {
	lines := []Line{{ProductID: id.New(), Quantity: 3, UnitWeightGrams: 333}}
	first := Calculate(lines)
	second := Calculate(lines)
	assert.True(t, first.FreightValue.Equal(second.FreightValue))
}
