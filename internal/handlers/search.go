package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/search"
)

// chatRequest is the body of POST /api/search/chat
type chatRequest struct {
	Query        string           `json:"query"`
	History      []search.Turn    `json:"history"`
	Strategy     string           `json:"strategy"`
	Category     string           `json:"category"`
	Manufacturer string           `json:"manufacturer"`
	Ingredient   string           `json:"ingredient"`
	MinPrice     *decimal.Decimal `json:"min_price"`
	MaxPrice     *decimal.Decimal `json:"max_price"`
	Sort         string           `json:"sort"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
}

// search handles GET /api/search
func (r *Router) search(w http.ResponseWriter, req *http.Request) {
	sr, err := searchRequestFromQuery(req.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := r.deps.Search.Resolve(req.Context(), sr)
	r.respondPage(w, req.Context(), page, err)
}

// searchChat handles POST /api/search/chat
func (r *Router) searchChat(w http.ResponseWriter, req *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	strategy, err := parseStrategy(body.Strategy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := r.deps.Search.ResolveConversational(req.Context(), search.Request{
		Query:    body.Query,
		Strategy: strategy,
		Filters: search.Filters{
			Category:     body.Category,
			Manufacturer: body.Manufacturer,
			Ingredient:   body.Ingredient,
			MinPrice:     body.MinPrice,
			MaxPrice:     body.MaxPrice,
			Sort:         search.ParseSortKey(body.Sort),
		},
		Page:     body.Page,
		PageSize: body.PageSize,
		History:  body.History,
	})
	r.respondPage(w, req.Context(), page, err)
}

func (r *Router) respondPage(w http.ResponseWriter, ctx context.Context, page *search.SearchResultPage, err error) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			respondError(w, http.StatusServiceUnavailable, "Search cancelled")
			return
		}
		logger.Error(ctx, "❌ Search failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// searchRequestFromQuery reads a search request from URL parameters.
// Unknown sort keys and malformed paging numbers fall back to defaults;
// a bad strategy or price is rejected.
func searchRequestFromQuery(q url.Values) (search.Request, error) {
	strategy, err := parseStrategy(q.Get("strategy"))
	if err != nil {
		return search.Request{}, err
	}
	minPrice, err := parseDecimal(q.Get("min_price"), "min_price")
	if err != nil {
		return search.Request{}, err
	}
	maxPrice, err := parseDecimal(q.Get("max_price"), "max_price")
	if err != nil {
		return search.Request{}, err
	}
	page := parseInt(q.Get("page"))
	pageSize := parseInt(q.Get("page_size"))

	return search.Request{
		Query:    q.Get("q"),
		Strategy: strategy,
		Filters: search.Filters{
			Category:     q.Get("category"),
			Manufacturer: q.Get("manufacturer"),
			Ingredient:   q.Get("ingredient"),
			MinPrice:     minPrice,
			MaxPrice:     maxPrice,
			Sort:         search.ParseSortKey(q.Get("sort")),
		},
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func parseStrategy(s string) (search.Strategy, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	strategy, ok := search.ParseStrategy(s)
	if !ok {
		return "", errors.New("unknown strategy: " + s)
	}
	return strategy, nil
}

func parseDecimal(s, name string) (*decimal.Decimal, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	return &d, nil
}

// parseInt returns 0 for blank or malformed input so the engine applies its default
func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
