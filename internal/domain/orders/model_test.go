package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/catalog"
)

func item(q int64, grams int64, price, cost string) LineItem {
	l := NewLineItem()
	l.ProductID = id.New()
	l.Quantity = q
	l.UnitWeightGrams = grams
	l.UnitPrice = types.MustMoney(price)
	l.UnitCost = types.MustMoney(cost)
	return l
}

func TestRecalculate_TwoLineWeightAndTotals(t *testing.T) {
	o := NewOrder(id.New())
	o.Items = []LineItem{item(10, 50, "5", "3"), item(5, 100, "10", "6")}

	o.Recalculate()

	assert.True(t, decimal.RequireFromString("1.3").Equal(o.GrossWeightKg))
	assert.True(t, decimal.RequireFromString("5.85").Equal(o.FreightValue))
	assert.True(t, types.MustMoney("100").Equal(o.TotalValue))
	assert.True(t, types.MustMoney("60").Equal(o.TotalCostValue))
	assert.Equal(t, 1, o.Items[0].LineNo)
	assert.Equal(t, 2, o.Items[1].LineNo)
	assert.True(t, types.MustMoney("50").Equal(o.Items[0].Subtotal))
}

func TestRecalculate_TotalsMatchSums(t *testing.T) {
	o := NewOrder(id.New())
	for q := int64(1); q <= 12; q++ {
		o.Items = append(o.Items, item(q, q*7, "1.25", "0.75"))
	}
	freightLine := item(1, 0, "9.99", "9.99")
	freightLine.ProductID = catalog.FreightProductID
	o.Items = append(o.Items, freightLine)

	o.Recalculate()

	total, cost := types.Zero(), types.Zero()
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
		cost = cost.Add(it.UnitCost.Mul(decimal.NewFromInt(it.Quantity)))
	}
	assert.True(t, total.Equal(o.TotalValue))
	assert.True(t, cost.Equal(o.TotalCostValue))
}

func TestRecalculate_IgnoresPreviousDerivedValues(t *testing.T) {
	o := NewOrder(id.New())
	o.Items = []LineItem{item(10, 50, "5", "3")}
	o.FreightValue = types.MustMoney("999")
	o.TotalValue = types.MustMoney("999")

	o.Recalculate()
	first := o.FreightValue
	o.Recalculate()

	assert.True(t, first.Equal(o.FreightValue))
	assert.True(t, types.MustMoney("50").Equal(o.TotalValue))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty items", func(t *testing.T) {
		o := NewOrder(id.New())
		err := o.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("missing customer", func(t *testing.T) {
		o := NewOrder(id.Nil())
		o.Items = []LineItem{item(1, 1, "1", "1")}
		assert.True(t, apperror.IsValidation(o.Validate(ctx)))
	})

	t.Run("negative price", func(t *testing.T) {
		o := NewOrder(id.New())
		o.Items = []LineItem{item(1, 1, "-1", "1")}
		assert.True(t, apperror.IsValidation(o.Validate(ctx)))
	})

	t.Run("valid", func(t *testing.T) {
		o := NewOrder(id.New())
		o.Items = []LineItem{item(1, 1, "1", "1")}
		assert.NoError(t, o.Validate(ctx))
	})
}

func TestProfitPercent(t *testing.T) {
	assert.True(t, ProfitPercent(types.Zero(), types.MustMoney("40")).IsZero())
	assert.True(t, decimal.NewFromInt(40).Equal(ProfitPercent(types.MustMoney("100"), types.MustMoney("60"))))
	assert.True(t, types.MustMoney("-20").Equal(Profit(types.MustMoney("40"), types.MustMoney("60"))))
}
