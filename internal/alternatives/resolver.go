// Package alternatives finds what else a customer could buy instead of a
// product: the same ingredient from the same manufacturer, the same
// ingredient from another manufacturer, and therapeutically comparable
// products with a different ingredient.
package alternatives

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
)

// ErrProductNotFound is returned when the requested product does not exist
var ErrProductNotFound = models.ErrProductNotFound

// Disclaimer accompanies every non-empty therapeutic alternative list
const Disclaimer = "Therapeutic alternatives contain a different active ingredient and are not pharmacologically equivalent. Ask a doctor or pharmacist before switching."

// Store is the catalog read access the resolver needs
type Store interface {
	// GetProduct returns ErrProductNotFound when id does not exist
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// FindByIngredient returns every product with exactly this ingredient
	// except excludeID, cheapest first
	FindByIngredient(ctx context.Context, ingredient string, excludeID int64) ([]models.Product, error)
	// FindTherapeutic follows the alternative links of sourceID to products
	// whose ingredient differs from ingredient, most similar first, then cheapest
	FindTherapeutic(ctx context.Context, sourceID int64, ingredient string, limit int) ([]Linked, error)
}

// VisitCounter records that a product page was looked at
type VisitCounter interface {
	IncrementVisit(ctx context.Context, productID int64) error
}

// Linked is a product reached through an alternative link
type Linked struct {
	Product         models.Product
	SimilarityScore float64
}

// Badge summarizes how an alternative's price compares
type Badge string

const (
	BadgeSavings       Badge = "savings"
	BadgeMoreExpensive Badge = "more_expensive"
	BadgeSamePrice     Badge = "same_price"
)

// Alternative is a same-ingredient product from another manufacturer
type Alternative struct {
	Product        models.Product  `json:"product"`
	PriceDelta     decimal.Decimal `json:"price_delta"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
	Badge          Badge           `json:"badge"`
	Cheapest       bool            `json:"cheapest"`
}

// Therapeutic is a comparable product with a different ingredient
type Therapeutic struct {
	Product         models.Product  `json:"product"`
	SimilarityScore float64         `json:"similarity_score"`
	PriceDelta      decimal.Decimal `json:"price_delta"`
	Badge           Badge           `json:"badge"`
}

// Result holds the three candidate sets for one product
type Result struct {
	Product                 models.Product   `json:"product"`
	Equivalents             []models.Product `json:"equivalents"`
	Alternatives            []Alternative    `json:"alternatives"`
	TherapeuticAlternatives []Therapeutic    `json:"therapeutic_alternatives"`
	Disclaimer              string           `json:"disclaimer,omitempty"`
}

// Resolver computes alternatives. Nothing is cached between calls.
type Resolver struct {
	store            Store
	visits           VisitCounter
	therapeuticLimit int
}

// NewResolver creates a resolver. visits may be nil.
func NewResolver(store Store, visits VisitCounter, cfg config.SearchConfig) *Resolver {
	limit := cfg.TherapeuticLimit
	if limit < 1 {
		limit = 5
	}
	return &Resolver{store: store, visits: visits, therapeuticLimit: limit}
}

// FindAlternatives computes the equivalents, alternatives and therapeutic
// alternatives of the product with the given id
func (r *Resolver) FindAlternatives(ctx context.Context, id int64) (*Result, error) {
	p, err := r.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	r.recordVisit(ctx, p.ID)

	res := &Result{
		Product:                 *p,
		Equivalents:             []models.Product{},
		Alternatives:            []Alternative{},
		TherapeuticAlternatives: []Therapeutic{},
	}

	// products without an ingredient have no equivalence key
	if ingredient := strings.TrimSpace(p.Ingredient); ingredient != "" {
		peers, err := r.store.FindByIngredient(ctx, p.Ingredient, p.ID)
		if err != nil {
			return nil, fmt.Errorf("find same-ingredient products: %w", err)
		}
		for _, peer := range peers {
			if peer.ID == p.ID || peer.Ingredient != p.Ingredient {
				continue
			}
			if peer.Manufacturer == p.Manufacturer {
				res.Equivalents = append(res.Equivalents, peer)
				continue
			}
			res.Alternatives = append(res.Alternatives, annotate(*p, peer))
		}
		if len(res.Alternatives) > 0 && res.Alternatives[0].Product.Price.LessThan(p.Price) {
			res.Alternatives[0].Cheapest = true
		}
	}

	linked, err := r.store.FindTherapeutic(ctx, p.ID, p.Ingredient, r.therapeuticLimit)
	if err != nil {
		return nil, fmt.Errorf("find therapeutic alternatives: %w", err)
	}
	for _, l := range linked {
		if len(res.TherapeuticAlternatives) == r.therapeuticLimit {
			break
		}
		if l.Product.ID == p.ID || l.Product.Ingredient == p.Ingredient {
			continue
		}
		delta := p.Price.Sub(l.Product.Price)
		res.TherapeuticAlternatives = append(res.TherapeuticAlternatives, Therapeutic{
			Product:         l.Product,
			SimilarityScore: l.SimilarityScore,
			PriceDelta:      delta,
			Badge:           badgeFor(delta),
		})
	}
	if len(res.TherapeuticAlternatives) > 0 {
		res.Disclaimer = Disclaimer
	}
	return res, nil
}

func (r *Resolver) recordVisit(ctx context.Context, id int64) {
	if r.visits == nil {
		return
	}
	if err := r.visits.IncrementVisit(ctx, id); err != nil {
		logger.Warn(ctx, "⚠️ failed to record product visit", "product_id", id, "error", err)
	}
}

var hundred = decimal.NewFromInt(100)

// annotate computes the price delta of alt against p. A positive delta is a
// saving and carries a savings percentage relative to p's price.
func annotate(p, alt models.Product) Alternative {
	delta := p.Price.Sub(alt.Price)
	a := Alternative{
		Product:        alt,
		PriceDelta:     delta,
		SavingsPercent: decimal.Zero,
		Badge:          badgeFor(delta),
	}
	if delta.IsPositive() && p.Price.IsPositive() {
		a.SavingsPercent = delta.Div(p.Price).Mul(hundred).Round(2)
	}
	return a
}

func badgeFor(delta decimal.Decimal) Badge {
	switch delta.Sign() {
	case 1:
		return BadgeSavings
	case -1:
		return BadgeMoreExpensive
	}
	return BadgeSamePrice
}
