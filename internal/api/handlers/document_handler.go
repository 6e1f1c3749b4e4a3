package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/intellidoc/internal/api/middlewares"
	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/core/extractor"
	"github.com/markdave123-py/intellidoc/internal/core/pipeline"
	"github.com/markdave123-py/intellidoc/internal/core/query"
	"github.com/markdave123-py/intellidoc/internal/models"
)

const maxUploadBytes = 52 << 20 // 52 MB

type DocumentHandler struct {
	store   core.RecordStore
	objects core.ObjectStore
	pl      *pipeline.Pipeline
	engine  *query.Engine
}

func NewDocumentHandler(store core.RecordStore, objects core.ObjectStore, pl *pipeline.Pipeline, engine *query.Engine) *DocumentHandler {
	return &DocumentHandler{store: store, objects: objects, pl: pl, engine: engine}
}

// Upload validates the file type, stores the original, creates the document
// record and enqueues indexing. The response returns immediately with the
// pre-processing record; processing state is visible via status.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !extractor.Supported(contentType) {
		http.Error(w, fmt.Sprintf("file type %q not supported", contentType), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	var category *string
	if c := r.FormValue("category"); c != "" {
		category = &c
	}

	docID := uuid.NewString()
	cleanName := filepath.Base(header.Filename)
	storageKey := fmt.Sprintf("%s/%s/%s", userID, docID, cleanName)

	uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := h.objects.Put(uploadCtx, storageKey, data, contentType); err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	doc := &models.Document{
		ID:               docID,
		OwnerID:          userID,
		FileName:         cleanName,
		OriginalFileName: header.Filename,
		StorageKey:       storageKey,
		MimeType:         contentType,
		FileSize:         int64(len(data)),
		Category:         category,
		Status:           models.StatusUploaded,
		CreatedAt:        time.Now(),
	}

	if err := h.store.CreateDocument(uploadCtx, doc); err != nil {
		log.Printf("DB insert failed for doc %s: %v", docID, err)
		http.Error(w, "failed to store document metadata", http.StatusInternalServerError)
		return
	}

	h.pl.Enqueue(doc.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := h.store.ListDocuments(r.Context(), userID, skip, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := docs[:0]
		for _, d := range docs {
			if d.Category != nil && *d.Category == category {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}
	if docs == nil {
		docs = []models.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doc, err := h.store.GetDocument(r.Context(), chi.URLParam(r, "documentID"), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

type askRequest struct {
	Query string `json:"query"`
}

// Ask runs question-answering over one processed document.
func (h *DocumentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	docID := chi.URLParam(r, "documentID")
	answer, err := h.engine.Ask(r.Context(), docID, userID, req.Query)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"question":    req.Query,
		"answer":      answer.Answer,
		"confidence":  answer.Confidence,
		"document_id": docID,
	})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search runs semantic search over the caller's whole corpus.
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	results, err := h.engine.Search(r.Context(), userID, req.Query, req.Limit)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":       req.Query,
		"results":     results,
		"total_found": len(results),
	})
}

// Delete reports success only after the vector index cleanup was issued and
// the record removed.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	deleted, err := h.pl.Delete(r.Context(), chi.URLParam(r, "documentID"), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, core.ErrNotProcessed):
		http.Error(w, "document not processed yet", http.StatusBadRequest)
	case errors.Is(err, core.ErrUnsupportedType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
