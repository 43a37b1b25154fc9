// Package details serves the clinical leaflet of a product. A leaflet is read
// from storage, or generated once by the completion service and stored.
package details

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/xelth-com/pharmsearch/internal/ai"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
)

// ErrProductNotFound is returned when the requested product does not exist
var ErrProductNotFound = models.ErrProductNotFound

// Store is the storage access of the detail service
type Store interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	FindDetails(ctx context.Context, productIDs []int64) (map[int64]models.ProductDetail, error)
	// UpsertDetail writes d, replacing any row with the same product id
	UpsertDetail(ctx context.Context, d *models.ProductDetail) error
}

// VisitCounter records that a product page was looked at
type VisitCounter interface {
	IncrementVisit(ctx context.Context, productID int64) error
}

// Enriched is a product together with its leaflet
type Enriched struct {
	Product         models.Product       `json:"product"`
	Detail          models.ProductDetail `json:"detail"`
	UnitPrice       string               `json:"unit_price"`
	HasDiscount     bool                 `json:"has_discount"`
	DiscountPercent string               `json:"discount_percent,omitempty"`
}

// Service loads product details lazily
type Service struct {
	store     Store
	visits    VisitCounter
	completer ai.Completer
}

// NewService creates a detail service. A nil completer disables generation;
// products without a stored leaflet then get the fallback detail.
func NewService(store Store, visits VisitCounter, completer ai.Completer) *Service {
	return &Service{store: store, visits: visits, completer: completer}
}

// Get returns the product with its leaflet. Generation failures never fail
// the call; the leaflet then reads "Not available" everywhere.
func (s *Service) Get(ctx context.Context, id int64) (*Enriched, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.visits != nil {
		if err := s.visits.IncrementVisit(ctx, p.ID); err != nil {
			logger.Warn(ctx, "⚠️ failed to record product visit", "product_id", p.ID, "error", err)
		}
	}

	out := &Enriched{
		Product:     *p,
		Detail:      s.detail(ctx, p),
		UnitPrice:   p.UnitPrice().StringFixed(2),
		HasDiscount: p.HasDiscount(),
	}
	if out.HasDiscount {
		out.DiscountPercent = p.DiscountPercent().String()
	}
	return out, nil
}

func (s *Service) detail(ctx context.Context, p *models.Product) models.ProductDetail {
	stored, err := s.store.FindDetails(ctx, []int64{p.ID})
	if err != nil {
		logger.Warn(ctx, "⚠️ failed to read product detail", "product_id", p.ID, "error", err)
		return models.FallbackDetail(p.ID)
	}
	if d, ok := stored[p.ID]; ok {
		return display(d)
	}

	d, err := s.generate(ctx, p)
	if err != nil {
		logger.Warn(ctx, "⚠️ product detail generation failed", "product_id", p.ID, "error", err)
		return models.FallbackDetail(p.ID)
	}

	// concurrent generations for the same product overwrite one another
	if err := s.store.UpsertDetail(ctx, d); err != nil {
		logger.Error(ctx, "❌ failed to store generated product detail", "product_id", p.ID, "error", err)
	}
	return display(*d)
}

type generatedDetail struct {
	Indications       string `json:"indications"`
	Dosage            string `json:"dosage"`
	SideEffects       string `json:"side_effects"`
	Contraindications string `json:"contraindications"`
	Interactions      string `json:"interactions"`
	StorageNotes      string `json:"storage_notes"`
	UsageInstructions string `json:"usage_instructions"`
}

func (s *Service) generate(ctx context.Context, p *models.Product) (*models.ProductDetail, error) {
	if s.completer == nil {
		return nil, ai.ErrUnavailable
	}

	prompt := fmt.Sprintf(ai.ProductDetailPrompt, p.Name, p.Ingredient, p.Manufacturer)
	raw, err := s.completer.GenerateJSON(ctx, prompt, ai.ProductDetailSchema())
	if err != nil {
		return nil, err
	}

	var g generatedDetail
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode detail: %w", err)
	}
	d := &models.ProductDetail{
		ProductID:         p.ID,
		Indications:       strings.TrimSpace(g.Indications),
		Dosage:            strings.TrimSpace(g.Dosage),
		SideEffects:       strings.TrimSpace(g.SideEffects),
		Contraindications: strings.TrimSpace(g.Contraindications),
		Interactions:      strings.TrimSpace(g.Interactions),
		StorageNotes:      strings.TrimSpace(g.StorageNotes),
		UsageInstructions: strings.TrimSpace(g.UsageInstructions),
		Source:            models.DetailSourceGenerated,
		RawData:           datatypes.JSON(raw),
	}
	if d.Indications == "" && d.Dosage == "" && d.SideEffects == "" {
		return nil, ai.ErrEmptyResponse
	}
	return d, nil
}

// display fills blank fields with models.NotAvailable
func display(d models.ProductDetail) models.ProductDetail {
	d.Indications = models.OrNotAvailable(d.Indications)
	d.Dosage = models.OrNotAvailable(d.Dosage)
	d.SideEffects = models.OrNotAvailable(d.SideEffects)
	d.Contraindications = models.OrNotAvailable(d.Contraindications)
	d.Interactions = models.OrNotAvailable(d.Interactions)
	d.StorageNotes = models.OrNotAvailable(d.StorageNotes)
	d.UsageInstructions = models.OrNotAvailable(d.UsageInstructions)
	return d
}
