package models

// AlternativeLink points from a product to a therapeutically comparable product
// with a different ingredient. Links are precomputed elsewhere; this service only reads them.
type AlternativeLink struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	SourceProductID      int64   `gorm:"not null;uniqueIndex:idx_alt_link_pair" json:"source_product_id"`
	AlternativeProductID int64   `gorm:"not null;uniqueIndex:idx_alt_link_pair" json:"alternative_product_id"`
	SimilarityScore      float64 `gorm:"not null;default:0" json:"similarity_score"`
}

func (AlternativeLink) TableName() string { return "alternative_links" }
