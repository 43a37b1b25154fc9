package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/pharmsearch/internal/alternatives"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
)

// getProduct returns a product with its leaflet, generating the leaflet on
// first view when needed
func (r *Router) getProduct(w http.ResponseWriter, req *http.Request) {
	id, ok := productID(w, req)
	if !ok {
		return
	}

	enriched, err := r.deps.Details.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		logger.Error(req.Context(), "❌ Failed to load product", "product_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	respondJSON(w, http.StatusOK, enriched)
}

// getAlternatives returns the substitutes of a product. With ?bucket= only
// the alternatives in that price band are returned.
func (r *Router) getAlternatives(w http.ResponseWriter, req *http.Request) {
	id, ok := productID(w, req)
	if !ok {
		return
	}

	var bucket alternatives.Bucket
	if raw := req.URL.Query().Get("bucket"); raw != "" {
		if bucket, ok = alternatives.ParseBucket(raw); !ok {
			respondError(w, http.StatusBadRequest, "unknown bucket: "+raw)
			return
		}
	}

	result, err := r.deps.Alternatives.FindAlternatives(req.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		logger.Error(req.Context(), "❌ Failed to compute alternatives", "product_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch alternatives")
		return
	}

	if bucket != "" {
		result.Alternatives = result.Buckets(r.deps.BucketThreshold).Get(bucket)
	}
	respondJSON(w, http.StatusOK, result)
}

func productID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return 0, false
	}
	return id, true
}
