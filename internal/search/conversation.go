package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xelth-com/pharmsearch/internal/ai"
	"github.com/xelth-com/pharmsearch/internal/analysis"
	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
	"github.com/xelth-com/pharmsearch/internal/utils"
)

// FallbackNarrative answers a conversational request when no narrative could
// be generated
const FallbackNarrative = "I could not prepare a written answer right now. Please look through the matching products listed below, and ask a pharmacist if you are unsure which one suits you."

const consultNotice = "This information is not medical advice. Consult a pharmacist or doctor before starting, stopping or combining any medication."

// fallbackSafetyPoints replace generated safety points when generation fails
var fallbackSafetyPoints = []string{
	"Read the package leaflet and follow the stated dosage.",
	"Check for allergies and interactions with medicines you already take.",
	"See a doctor if symptoms persist, worsen or come with a high fever.",
}

const maxSafetyPoints = 3

// ContextBuilder assembles the grounding document handed to the completion
// service for conversational answers
type ContextBuilder struct {
	store     Store
	completer ai.Completer
	cfg       config.SearchConfig
}

// NewContextBuilder creates a builder. A nil completer yields fallback text.
func NewContextBuilder(store Store, completer ai.Completer, cfg config.SearchConfig) *ContextBuilder {
	return &ContextBuilder{store: store, completer: completer, cfg: cfg}
}

// ConversationInput is what a context document is built from
type ConversationInput struct {
	Analysis  analysis.QueryAnalysis
	Page      *SearchResultPage
	History   []Turn
	Health    bool
	Condition string
}

// Build renders the context document. Sections always come in the same
// order: analysis summary, health advisory, medication digest, result count
// and prior turns.
func (b *ContextBuilder) Build(ctx context.Context, in ConversationInput) string {
	var sb strings.Builder

	sb.WriteString("## Query analysis\n")
	fmt.Fprintf(&sb, "Intent: %s\n", in.Analysis.Intent)
	if len(in.Analysis.Entities) == 0 {
		sb.WriteString("Entities: none\n")
	} else {
		sb.WriteString("Entities:\n")
		for _, e := range in.Analysis.Entities {
			fmt.Fprintf(&sb, "- %s: %s (confidence %.2f)\n", e.Type, e.Value, e.Confidence)
		}
	}

	if in.Health {
		sb.WriteString("\n## Health advisory\n")
		sb.WriteString(consultNotice + "\n")
		if in.Condition != "" {
			fmt.Fprintf(&sb, "Condition: %s\n", in.Condition)
		}
		for _, p := range b.SafetyPoints(ctx, in.Condition) {
			fmt.Fprintf(&sb, "- %s\n", p)
		}
	}

	sb.WriteString("\n## Matching products\n")
	var products []models.Product
	var total int64
	if in.Page != nil {
		products = in.Page.Products
		total = in.Page.Total
	}
	if len(products) > b.cfg.DigestLimit {
		products = products[:b.cfg.DigestLimit]
	}
	if len(products) == 0 {
		sb.WriteString("No matching products.\n")
	}
	details := b.details(ctx, products)
	for i, p := range products {
		b.writeDigest(&sb, i+1, p, details[p.ID])
	}

	fmt.Fprintf(&sb, "\n## Total results\n%d\n", total)

	history := in.History
	if len(history) > b.cfg.MaxPriorTurns {
		history = history[len(history)-b.cfg.MaxPriorTurns:]
	}
	if len(history) > 0 {
		sb.WriteString("\n## Previous conversation\n")
		for _, t := range history {
			fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
		}
	}
	return sb.String()
}

func (b *ContextBuilder) writeDigest(sb *strings.Builder, n int, p models.Product, d models.ProductDetail) {
	fmt.Fprintf(sb, "%d. %s\n", n, p.Name)
	fmt.Fprintf(sb, "   Ingredient: %s\n", models.OrNotAvailable(p.Ingredient))
	fmt.Fprintf(sb, "   Manufacturer: %s\n", models.OrNotAvailable(p.Manufacturer))
	fmt.Fprintf(sb, "   Price: %s\n", p.Price.StringFixed(2))
	fmt.Fprintf(sb, "   Indications: %s\n", utils.Truncate(models.OrNotAvailable(d.Indications), b.cfg.DigestFieldChars))
	fmt.Fprintf(sb, "   Dosage: %s\n", utils.Truncate(models.OrNotAvailable(d.Dosage), b.cfg.DigestFieldChars))
	fmt.Fprintf(sb, "   Side effects: %s\n", utils.Truncate(models.OrNotAvailable(d.SideEffects), b.cfg.DigestFieldChars))
}

// details reads the stored details of products. The digest never triggers
// generation; a read failure leaves every field "Not available".
func (b *ContextBuilder) details(ctx context.Context, products []models.Product) map[int64]models.ProductDetail {
	if b.store == nil || len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	details, err := b.store.FindDetails(ctx, ids)
	if err != nil {
		logger.Warn(ctx, "⚠️ failed to load details for digest", "error", err)
		return nil
	}
	return details
}

// SafetyPoints asks the completion service for up to three safety reminders
// about condition, falling back to a fixed generic triplet
func (b *ContextBuilder) SafetyPoints(ctx context.Context, condition string) []string {
	if b.completer == nil {
		return fallbackSafetyPoints
	}

	raw, err := b.completer.GenerateJSON(ctx, fmt.Sprintf(ai.SafetyPointsPrompt, condition), ai.SafetyPointsSchema())
	if err != nil {
		logger.Warn(ctx, "⚠️ safety points unavailable", "condition", condition, "error", err)
		return fallbackSafetyPoints
	}

	var resp struct {
		Points []string `json:"points"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		logger.Warn(ctx, "⚠️ safety points response rejected", "error", err)
		return fallbackSafetyPoints
	}

	points := make([]string, 0, maxSafetyPoints)
	for _, p := range resp.Points {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
		if len(points) == maxSafetyPoints {
			break
		}
	}
	if len(points) == 0 {
		return fallbackSafetyPoints
	}
	return points
}

// Narrate asks the completion service to answer message from doc alone
func (b *ContextBuilder) Narrate(ctx context.Context, doc, message string) string {
	if b.completer == nil {
		return FallbackNarrative
	}
	text, err := b.completer.GenerateContent(ctx, fmt.Sprintf(ai.ConversationPrompt, doc, message))
	if err != nil {
		logger.Warn(ctx, "⚠️ narrative unavailable", "error", err)
		return FallbackNarrative
	}
	if text = strings.TrimSpace(text); text == "" {
		return FallbackNarrative
	}
	return text
}
