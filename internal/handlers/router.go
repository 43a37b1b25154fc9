package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/alternatives"
	"github.com/xelth-com/pharmsearch/internal/buildinfo"
	"github.com/xelth-com/pharmsearch/internal/details"
	"github.com/xelth-com/pharmsearch/internal/search"
	"github.com/xelth-com/pharmsearch/internal/websocket"
)

// Searcher resolves catalog queries
type Searcher interface {
	Resolve(ctx context.Context, req search.Request) (*search.SearchResultPage, error)
	ResolveConversational(ctx context.Context, req search.Request) (*search.SearchResultPage, error)
}

// AlternativeFinder computes substitutes for a product
type AlternativeFinder interface {
	FindAlternatives(ctx context.Context, id int64) (*alternatives.Result, error)
}

// DetailGetter loads a product with its leaflet
type DetailGetter interface {
	Get(ctx context.Context, id int64) (*details.Enriched, error)
}

// Deps groups the services the router dispatches to
type Deps struct {
	Search       Searcher
	Alternatives AlternativeFinder
	Details      DetailGetter
	Hub          *websocket.Hub // nil disables /ws

	// Price deltas within this band count as "similar"
	BucketThreshold decimal.Decimal
}

// Router wraps the mux router and the catalog services
type Router struct {
	*mux.Router
	deps Deps
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(deps Deps) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		deps:   deps,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Search routes
	api.HandleFunc("/search", r.search).Methods("GET")
	api.HandleFunc("/search/chat", r.searchChat).Methods("POST")

	// Product routes
	products := api.PathPrefix("/products").Subrouter()
	products.HandleFunc("/{id:[0-9]+}", r.getProduct).Methods("GET")
	products.HandleFunc("/{id:[0-9]+}/alternatives", r.getAlternatives).Methods("GET")

	if deps.Hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(deps.Hub, w, req)
		})
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns build and uptime information
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	status := struct {
		Status string `json:"status"`
		buildinfo.Info
		ChatClients int `json:"chat_clients"`
	}{Status: "running", Info: buildinfo.Current()}
	if r.deps.Hub != nil {
		status.ChatClients = r.deps.Hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, status)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
