package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
)

// SeedStats counts the rows written by Seed
type SeedStats struct {
	Products int
	Details  int
	Links    int
}

// CountProducts returns the number of catalog products
func (db *DB) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// Seed writes the demo catalog in one transaction. With replace the existing
// catalog is deleted first; otherwise a non-empty catalog is an error.
func (db *DB) Seed(ctx context.Context, replace bool) (SeedStats, error) {
	var stats SeedStats
	products, details, links := demoCatalog()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Product{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			if !replace {
				return fmt.Errorf("catalog already has %d products", existing)
			}
			for _, m := range []interface{}{&models.AlternativeLink{}, &models.ProductDetail{}, &models.Product{}} {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
					return fmt.Errorf("clear catalog: %w", err)
				}
			}
		}

		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("create products: %w", err)
		}
		if err := tx.Create(&details).Error; err != nil {
			return fmt.Errorf("create details: %w", err)
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("create alternative links: %w", err)
		}
		stats = SeedStats{Products: len(products), Details: len(details), Links: len(links)}
		return nil
	})
	if err != nil {
		return SeedStats{}, err
	}

	logger.Info(ctx, "🌱 Demo catalog seeded", "products", stats.Products, "details", stats.Details, "links", stats.Links)
	return stats, nil
}

func demoCatalog() ([]models.Product, []models.ProductDetail, []models.AlternativeLink) {
	p := func(id int64, name, local, ingredient, maker, category string, price, old int64, units int, barcode, desc string) models.Product {
		return models.Product{
			ID: id, Name: name, LocalName: local, Ingredient: ingredient, Manufacturer: maker, Category: category,
			Price: decimal.NewFromInt(price), OldPrice: decimal.NewFromInt(old), Units: units, Barcode: barcode, Description: desc,
		}
	}

	products := []models.Product{
		p(1, "Panadol Extra", "بنادول اكسترا", "paracetamol/caffeine", "GSK", "Pain relief", 48, 55, 24, "6221155008741", "Fast relief of headache and fever"),
		p(2, "Panadol Advance 500mg", "بنادول ادفانس", "paracetamol", "GSK", "Pain relief", 36, 0, 24, "6221155008758", "Paracetamol for mild to moderate pain"),
		p(3, "Abimol 500mg", "ابيمول", "paracetamol", "Globalnapi", "Pain relief", 18, 0, 20, "6223000234561", "Paracetamol tablets"),
		p(4, "Cetal 500mg", "سيتال", "paracetamol", "EIPICO", "Pain relief", 15, 18, 20, "6221032114325", ""),
		p(5, "Brufen 400mg", "بروفين", "ibuprofen", "Abbott", "Pain relief", 42, 0, 30, "6221025003011", "Anti-inflammatory for pain and swelling"),
		p(6, "Cataflam 50mg", "كتافلام", "diclofenac potassium", "Novartis", "Pain relief", 57, 0, 20, "6221041001118", "Relief of acute pain and inflammation"),
		p(7, "Voltaren 50mg", "فولتارين", "diclofenac sodium", "Novartis", "Pain relief", 49, 0, 20, "6221041001125", ""),
		p(8, "Augmentin 1g", "اوجمنتين", "amoxicillin/clavulanate", "GSK", "Antibiotics", 140, 0, 14, "6221155009014", "Broad spectrum antibiotic"),
		p(9, "Hibiotic 1g", "هايبيوتك", "amoxicillin/clavulanate", "Amoun", "Antibiotics", 98, 110, 14, "6221000123457", ""),
		p(10, "Megamox 1g", "ميجاموكس", "amoxicillin/clavulanate", "Pharco", "Antibiotics", 92, 0, 14, "6221000456784", ""),
		p(11, "Claritine 10mg", "كلاريتين", "loratadine", "Bayer", "Allergy", 39, 0, 20, "6221000789013", "Non-drowsy allergy relief"),
		p(12, "Zyrtec 10mg", "زيرتك", "cetirizine", "GSK", "Allergy", 45, 0, 20, "6221000789020", "Allergy and hay fever relief"),
		p(13, "Tussivan N", "توسيفان ن", "dextromethorphan", "EIPICO", "Cough & cold", 25, 0, 1, "6221032117005", "Relieves dry cough"),
		p(14, "Bronchicum Elixir", "برونشيكوم", "thyme extract", "Sanofi", "Cough & cold", 40, 0, 1, "6221000800015", "Loosens mucus in productive cough"),
		p(15, "Nexium 40mg", "نيكسيوم", "esomeprazole", "AstraZeneca", "Digestive", 120, 132, 14, "6221000811110", "Treatment of acid reflux"),
		p(16, "Esmo 40mg", "ايزمو", "esomeprazole", "Hikma", "Digestive", 68, 0, 14, "6221000811127", ""),
	}

	details := []models.ProductDetail{
		{ProductID: 1, Indications: "Headache, migraine, toothache, fever", Dosage: "1-2 tablets every 4-6 hours, max 8 daily", SideEffects: "Rare; insomnia from caffeine", Source: models.DetailSourceStored},
		{ProductID: 5, Indications: "Pain, inflammation and fever", Dosage: "1 tablet three times daily after meals", SideEffects: "Stomach upset, heartburn", Contraindications: "Peptic ulcer, late pregnancy", Source: models.DetailSourceStored},
		{ProductID: 13, Indications: "Dry irritating cough", Dosage: "10 ml three times daily", SideEffects: "Drowsiness", Source: models.DetailSourceStored},
		{ProductID: 14, Indications: "Productive cough and bronchitis", Dosage: "5 ml four times daily", Source: models.DetailSourceStored},
		{ProductID: 15, Indications: "Gastroesophageal reflux disease, heartburn", Dosage: "1 capsule daily before breakfast", Source: models.DetailSourceStored},
	}

	links := []models.AlternativeLink{
		{SourceProductID: 5, AlternativeProductID: 6, SimilarityScore: 0.85},
		{SourceProductID: 5, AlternativeProductID: 7, SimilarityScore: 0.8},
		{SourceProductID: 5, AlternativeProductID: 2, SimilarityScore: 0.6},
		{SourceProductID: 11, AlternativeProductID: 12, SimilarityScore: 0.9},
		{SourceProductID: 12, AlternativeProductID: 11, SimilarityScore: 0.9},
		{SourceProductID: 13, AlternativeProductID: 14, SimilarityScore: 0.55},
	}

	return products, details, links
}
