package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Price is always present; OldPrice of zero means
// there is no previous price to compare against.
type Product struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;index" json:"name"`
	LocalName    string          `gorm:"index" json:"local_name,omitempty"`
	Ingredient   string          `gorm:"index" json:"ingredient"`
	Manufacturer string          `gorm:"index" json:"manufacturer"`
	Category     string          `gorm:"index" json:"category"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	OldPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"old_price"`
	Units        int             `gorm:"not null;default:1" json:"units"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	Barcode      string          `gorm:"index" json:"barcode,omitempty"`

	VisitCount     int64      `gorm:"not null;default:0" json:"visit_count"`
	SearchCount    int64      `gorm:"not null;default:0" json:"search_count"`
	PriceUpdatedAt *time.Time `json:"price_updated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// UnitPrice is the price of a single unit of the package
func (p Product) UnitPrice() decimal.Decimal {
	units := p.Units
	if units < 1 {
		units = 1
	}
	return p.Price.Div(decimal.NewFromInt(int64(units))).Round(2)
}

// HasDiscount reports whether the previous price is above the current one
func (p Product) HasDiscount() bool {
	return p.OldPrice.IsPositive() && p.OldPrice.GreaterThan(p.Price)
}

// DiscountPercent is the relative drop from OldPrice to Price, 0 without a discount
func (p Product) DiscountPercent() decimal.Decimal {
	if !p.HasDiscount() {
		return decimal.Zero
	}
	return p.OldPrice.Sub(p.Price).Div(p.OldPrice).Mul(decimal.NewFromInt(100)).Round(0)
}
