package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// NotAvailable is shown for detail fields that have no content
const NotAvailable = "Not available"

// Detail sources
const (
	DetailSourceStored    = "stored"
	DetailSourceGenerated = "generated"
	DetailSourceFallback  = "fallback"
)

// ProductDetail holds the clinical leaflet of a product. It is created lazily
// the first time a product is enriched and never changes afterwards.
type ProductDetail struct {
	ProductID         int64  `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Indications       string `gorm:"type:text" json:"indications"`
	Dosage            string `gorm:"type:text" json:"dosage"`
	SideEffects       string `gorm:"type:text" json:"side_effects"`
	Contraindications string `gorm:"type:text" json:"contraindications"`
	Interactions      string `gorm:"type:text" json:"interactions"`
	StorageNotes      string `gorm:"type:text" json:"storage_notes"`
	UsageInstructions string `gorm:"type:text" json:"usage_instructions"`

	Source  string         `gorm:"type:varchar(20);default:'stored'" json:"source"`
	RawData datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductDetail) TableName() string { return "product_details" }

// OrNotAvailable returns s, or NotAvailable when s is blank
func OrNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// FallbackDetail returns a detail with every field marked not available. It is
// returned when nothing is stored and generation fails, and is never persisted.
func FallbackDetail(productID int64) ProductDetail {
	return ProductDetail{
		ProductID:         productID,
		Indications:       NotAvailable,
		Dosage:            NotAvailable,
		SideEffects:       NotAvailable,
		Contraindications: NotAvailable,
		Interactions:      NotAvailable,
		StorageNotes:      NotAvailable,
		UsageInstructions: NotAvailable,
		Source:            DetailSourceFallback,
	}
}
