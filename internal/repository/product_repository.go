// Package repository implements the catalog stores on top of gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/pharmsearch/internal/alternatives"
	"github.com/xelth-com/pharmsearch/internal/details"
	"github.com/xelth-com/pharmsearch/internal/models"
	"github.com/xelth-com/pharmsearch/internal/search"
)

// ProductRepository serves the search engine, the alternative resolver and
// the detail service from one connection pool
type ProductRepository struct {
	db *gorm.DB
}

var (
	_ search.Store              = (*ProductRepository)(nil)
	_ search.Counters           = (*ProductRepository)(nil)
	_ alternatives.Store        = (*ProductRepository)(nil)
	_ alternatives.VisitCounter = (*ProductRepository)(nil)
	_ details.Store             = (*ProductRepository)(nil)
)

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// matching scopes a products query to q.Where
func (r *ProductRepository) matching(ctx context.Context, q search.Query) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if sql, args := search.Render(q.Where); sql != "" {
		tx = tx.Where(sql, args...)
	}
	return tx
}

func (r *ProductRepository) CountProducts(ctx context.Context, q search.Query) (int64, error) {
	var total int64
	if err := r.matching(ctx, q).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (r *ProductRepository) FindProducts(ctx context.Context, q search.Query, offset, limit int) ([]models.Product, error) {
	var products []models.Product
	tx := r.matching(ctx, q)
	if order, ok := orderBy(q.Order); ok {
		tx = tx.Clauses(order)
	}
	if err := tx.Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

// orderBy renders the order terms as one ORDER BY expression so terms with
// arguments keep their placeholders
func orderBy(terms []search.OrderTerm) (clause.OrderBy, bool) {
	if len(terms) == 0 {
		return clause.OrderBy{}, false
	}
	parts := make([]string, 0, len(terms))
	var vars []interface{}
	for _, t := range terms {
		dir := "ASC"
		if t.Desc {
			dir = "DESC"
		}
		parts = append(parts, t.Expr+" "+dir)
		vars = append(vars, t.Args...)
	}
	return clause.OrderBy{Expression: clause.Expr{SQL: strings.Join(parts, ", "), Vars: vars}}, true
}

func (r *ProductRepository) FindDetails(ctx context.Context, productIDs []int64) (map[int64]models.ProductDetail, error) {
	out := make(map[int64]models.ProductDetail, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []models.ProductDetail
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find product details: %w", err)
	}
	for _, d := range rows {
		out[d.ProductID] = d
	}
	return out, nil
}

// UpsertDetail inserts d or overwrites the stored row of the same product
func (r *ProductRepository) UpsertDetail(ctx context.Context, d *models.ProductDetail) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"indications", "dosage", "side_effects", "contraindications",
			"interactions", "storage_notes", "usage_instructions",
			"source", "raw_data", "updated_at",
		}),
	}).Create(d).Error
	if err != nil {
		return fmt.Errorf("upsert product detail %d: %w", d.ProductID, err)
	}
	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

func (r *ProductRepository) FindByIngredient(ctx context.Context, ingredient string, excludeID int64) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("ingredient = ? AND id <> ?", ingredient, excludeID).
		Order("price ASC").Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("find products by ingredient: %w", err)
	}
	return products, nil
}

type linkedRow struct {
	models.Product
	SimilarityScore float64
}

func (r *ProductRepository) FindTherapeutic(ctx context.Context, sourceID int64, ingredient string, limit int) ([]alternatives.Linked, error) {
	var rows []linkedRow
	err := r.db.WithContext(ctx).
		Table("products").
		Select("products.*, alternative_links.similarity_score").
		Joins("JOIN alternative_links ON alternative_links.alternative_product_id = products.id").
		Where("alternative_links.source_product_id = ? AND products.ingredient <> ?", sourceID, ingredient).
		Order("alternative_links.similarity_score DESC").Order("products.price ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find therapeutic alternatives: %w", err)
	}

	out := make([]alternatives.Linked, 0, len(rows))
	for _, row := range rows {
		out = append(out, alternatives.Linked{Product: row.Product, SimilarityScore: row.SimilarityScore})
	}
	return out, nil
}

func (r *ProductRepository) IncrementSearchHits(ctx context.Context, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id IN ?", productIDs).
		UpdateColumn("search_count", gorm.Expr("search_count + ?", 1)).Error
}

func (r *ProductRepository) IncrementVisit(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("visit_count", gorm.Expr("visit_count + ?", 1)).Error
}
