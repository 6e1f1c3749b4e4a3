package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/intellidoc/internal/api/middlewares"
	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/core/vectorindex"
)

type AnalyticsHandler struct {
	store core.RecordStore
	index vectorindex.Index
}

func NewAnalyticsHandler(store core.RecordStore, index vectorindex.Index) *AnalyticsHandler {
	return &AnalyticsHandler{store: store, index: index}
}

// Dashboard aggregates per-owner corpus statistics: document counts,
// processing rate, category distribution, recent uploads and the vector
// index footprint.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	total, processed, err := h.store.CountDocuments(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	categories, err := h.store.CategoryCounts(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = map[string]int{}
	}

	recent, err := h.store.ListDocuments(r.Context(), userID, 0, 5)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats, err := h.index.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rate := 0.0
	if total > 0 {
		rate = float64(processed) / float64(total)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total_documents":     total,
		"processed_documents": processed,
		"processing_rate":     rate,
		"categories":          categories,
		"recent_documents":    recent,
		"vector_index": map[string]any{
			"chunks":  stats.Count,
			"backend": stats.Backend,
		},
	})
}

// Analyses returns the stored AI analysis records for one document.
func (h *AnalyticsHandler) Analyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	docID := chi.URLParam(r, "documentID")
	doc, err := h.store.GetDocument(r.Context(), docID, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	analyses, err := h.store.ListAnalyses(r.Context(), docID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analyses)
}
