// Package freight derives shipped weight and the weight-based freight charge
// of an order from its line items.
package freight

import (
	"github.com/shopspring/decimal"

	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/catalog"
)

var (
	// PackagingFactor models packaging overhead on top of net product weight.
	PackagingFactor = decimal.RequireFromString("1.30")

	// RatePerKg is the fixed shipping rate per gross kilogram.
	RatePerKg = decimal.RequireFromString("4.5")

	gramsPerKg = decimal.NewFromInt(1000)
)

// Line is the weight-relevant projection of a line item.
type Line struct {
	ProductID       id.ID
	Quantity        int64
	UnitWeightGrams int64
}

// Result is the derived weight and freight of an item list.
// Values are unrounded; rounding is a presentation concern.
type Result struct {
	TotalGrams   decimal.Decimal
	GrossKg      decimal.Decimal
	FreightValue types.Money
}

// Calculate computes gross weight and freight for lines.
// Lines carrying the freight sentinel product are excluded, so the result
// never depends on a previously computed freight line. Empty input yields zeros.
func Calculate(lines []Line) Result {
	grams := decimal.Zero
	for _, l := range lines {
		if catalog.IsFreight(l.ProductID) {
			continue
		}
		if l.Quantity <= 0 || l.UnitWeightGrams <= 0 {
			continue
		}
		grams = grams.Add(decimal.NewFromInt(l.Quantity).Mul(decimal.NewFromInt(l.UnitWeightGrams)))
	}

	grossKg := grams.Mul(PackagingFactor).Div(gramsPerKg)
	return Result{
		TotalGrams:   grams,
		GrossKg:      grossKg,
		FreightValue: grossKg.Mul(RatePerKg),
	}
}
