package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/pharmsearch/internal/database"
	"github.com/xelth-com/pharmsearch/internal/models"
	"github.com/xelth-com/pharmsearch/internal/search"
)

func newTestRepo(t *testing.T) (*ProductRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Wrap(db).Migrate())
	return NewProductRepository(db), db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	products := []models.Product{
		{ID: 1, Name: "Augmentin 1g", Ingredient: "amoxicillin/clavulanate", Manufacturer: "GSK", Category: "Antibiotics", Price: decimal.NewFromInt(100), Units: 14, VisitCount: 5},
		{ID: 2, Name: "Hibiotic 1g", Ingredient: "amoxicillin/clavulanate", Manufacturer: "Amoun", Category: "Antibiotics", Price: decimal.NewFromInt(80), Units: 14, VisitCount: 9},
		{ID: 3, Name: "Augmentin 625mg", Ingredient: "amoxicillin/clavulanate", Manufacturer: "GSK", Category: "Antibiotics", Price: decimal.NewFromInt(70), Units: 14, VisitCount: 1},
		{ID: 4, Name: "Zithromax 500mg", Ingredient: "azithromycin", Manufacturer: "Pfizer", Category: "Antibiotics", Price: decimal.NewFromInt(120), Units: 3},
		{ID: 5, Name: "Zinnat 500mg", Ingredient: "cefuroxime", Manufacturer: "GSK", Category: "Antibiotics", Price: decimal.NewFromInt(90), Units: 10},
		{ID: 6, Name: "50% Discount Pack_A", Ingredient: "zinc", Manufacturer: "Misc", Category: "Supplements", Price: decimal.NewFromInt(10), Units: 1},
	}
	require.NoError(t, db.Create(&products).Error)

	links := []models.AlternativeLink{
		{SourceProductID: 1, AlternativeProductID: 5, SimilarityScore: 0.6},
		{SourceProductID: 1, AlternativeProductID: 4, SimilarityScore: 0.8},
		{SourceProductID: 1, AlternativeProductID: 2, SimilarityScore: 0.99},
	}
	require.NoError(t, db.Create(&links).Error)
}

func ids(products []models.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestCountAndFindShareThePredicate(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)
	ctx := context.Background()

	q := search.Query{
		Where: search.Cond{Field: search.FieldCategory, Op: search.OpContains, Value: "antibiotic"},
		Order: []search.OrderTerm{{Expr: "price"}, {Expr: "id", Desc: true}},
	}
	total, err := repo.CountProducts(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	all, err := repo.FindProducts(ctx, q, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int(total), len(all))
	assert.Equal(t, []int64{3, 2, 5, 1, 4}, ids(all))

	page2, err := repo.FindProducts(ctx, q, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 1}, ids(page2))
}

func TestFindProductsOrderWithArguments(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)

	q := search.Query{
		Where: search.Cond{Field: search.FieldName, Op: search.OpPrefix, Value: []string{"aug"}},
		Order: []search.OrderTerm{
			{Expr: "CASE WHEN LOWER(name) = ? THEN 0 ELSE 1 END", Args: []interface{}{"augmentin 625mg"}},
			{Expr: "id", Desc: true},
		},
	}
	products, err := repo.FindProducts(context.Background(), q, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(products))
}

func TestLikeInputIsEscaped(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)
	ctx := context.Background()

	percent := search.Query{Where: search.Cond{Field: search.FieldName, Op: search.OpContains, Value: "50%"}}
	n, err := repo.CountProducts(ctx, percent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	underscore := search.Query{Where: search.Cond{Field: search.FieldName, Op: search.OpContains, Value: "k_a"}}
	n, err = repo.CountProducts(ctx, underscore)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	wildcard := search.Query{Where: search.Cond{Field: search.FieldName, Op: search.OpContains, Value: "_"}}
	n, err = repo.CountProducts(ctx, wildcard)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "an underscore must only match itself")
}

func TestPriceRangePredicate(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)

	q := search.Query{Where: search.Cond{
		Field: search.FieldPrice,
		Op:    search.OpBetween,
		Value: decimal.NewFromInt(75),
		Upper: decimal.NewFromInt(95),
	}}
	products, err := repo.FindProducts(context.Background(), q, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 5}, ids(products))
}

func TestGetProduct(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)

	p, err := repo.GetProduct(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Zithromax 500mg", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(120)))

	_, err = repo.GetProduct(context.Background(), 404)
	assert.True(t, errors.Is(err, models.ErrProductNotFound))
}

func TestFindByIngredient(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)

	products, err := repo.FindByIngredient(context.Background(), "amoxicillin/clavulanate", 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(products))
}

func TestFindTherapeutic(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)

	linked, err := repo.FindTherapeutic(context.Background(), 1, "amoxicillin/clavulanate", 5)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, int64(4), linked[0].Product.ID)
	assert.Equal(t, 0.8, linked[0].SimilarityScore)
	assert.Equal(t, "Zithromax 500mg", linked[0].Product.Name)
	assert.Equal(t, int64(5), linked[1].Product.ID)

	limited, err := repo.FindTherapeutic(context.Background(), 1, "amoxicillin/clavulanate", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpsertDetailIsIdempotent(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)
	ctx := context.Background()

	first := &models.ProductDetail{ProductID: 1, Indications: "Bacterial infections", Source: models.DetailSourceGenerated}
	require.NoError(t, repo.UpsertDetail(ctx, first))

	second := &models.ProductDetail{ProductID: 1, Indications: "Bacterial infections of the ear", Dosage: "Twice daily", Source: models.DetailSourceGenerated}
	require.NoError(t, repo.UpsertDetail(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.ProductDetail{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindDetails(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Contains(t, found, int64(1))
	assert.NotContains(t, found, int64(2))
	assert.Equal(t, "Bacterial infections of the ear", found[1].Indications)
	assert.Equal(t, "Twice daily", found[1].Dosage)
}

func TestCounters(t *testing.T) {
	repo, db := newTestRepo(t)
	seed(t, db)
	ctx := context.Background()

	require.NoError(t, repo.IncrementSearchHits(ctx, []int64{1, 2}))
	require.NoError(t, repo.IncrementSearchHits(ctx, []int64{1}))
	require.NoError(t, repo.IncrementSearchHits(ctx, nil))
	require.NoError(t, repo.IncrementVisit(ctx, 3))

	var p1, p3 models.Product
	require.NoError(t, db.First(&p1, 1).Error)
	require.NoError(t, db.First(&p3, 3).Error)
	assert.Equal(t, int64(2), p1.SearchCount)
	assert.Equal(t, int64(2), p3.VisitCount)
}
