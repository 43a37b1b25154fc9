package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDiscount(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(80), OldPrice: decimal.NewFromInt(100)}
	require.True(t, p.HasDiscount(), "old price above current price is a discount")
	assert.True(t, p.DiscountPercent().Equal(decimal.NewFromInt(20)), "DiscountPercent: got %s", p.DiscountPercent())

	noOld := Product{Price: decimal.NewFromInt(80)}
	assert.False(t, noOld.HasDiscount(), "zero old price must not produce a discount")

	raised := Product{Price: decimal.NewFromInt(120), OldPrice: decimal.NewFromInt(100)}
	assert.False(t, raised.HasDiscount(), "price increase must not produce a discount")
	assert.True(t, raised.DiscountPercent().IsZero(), "DiscountPercent without discount: got %s", raised.DiscountPercent())
}

func TestProductUnitPrice(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(30), Units: 3}
	assert.True(t, p.UnitPrice().Equal(decimal.NewFromInt(10)), "UnitPrice: got %s", p.UnitPrice())

	// Units below one are treated as a single unit
	zero := Product{Price: decimal.NewFromInt(30)}
	assert.True(t, zero.UnitPrice().Equal(decimal.NewFromInt(30)), "UnitPrice with zero units: got %s", zero.UnitPrice())
}

func TestOrNotAvailable(t *testing.T) {
	assert.Equal(t, NotAvailable, OrNotAvailable("  "))
	assert.Equal(t, "Take with food", OrNotAvailable("Take with food"))

	fb := FallbackDetail(7)
	assert.Equal(t, int64(7), fb.ProductID)
	assert.Equal(t, DetailSourceFallback, fb.Source)
	assert.Equal(t, NotAvailable, fb.Dosage)
}
