package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/server/storage"
	"github.com/iudanet/gophsync/internal/validation"
	"github.com/iudanet/gophsync/pkg/api"
)

// DocumentsHandler read API состояния master (без протокола репликации)
type DocumentsHandler struct {
	*ReplicationHandler
}

// NewDocumentsHandler создает handler чтения документов
func NewDocumentsHandler(logger *slog.Logger, docs storage.DocumentStorage) *DocumentsHandler {
	return &DocumentsHandler{ReplicationHandler: &ReplicationHandler{logger: logger, storage: docs}}
}

// Collections обрабатывает GET /api/v1/collections.
// Возвращаются только коллекции, доступные токену.
func (h *DocumentsHandler) Collections(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	all, err := h.storage.Collections(r.Context())
	if err != nil {
		h.logger.Error("Failed to list collections", "error", err)
		h.sendError(w, "failed to list collections", http.StatusInternalServerError)
		return
	}

	allowed := make([]string, 0, len(all))
	for _, c := range all {
		if claims.AllowsCollection(c) {
			allowed = append(allowed, c)
		}
	}
	h.sendJSON(w, api.CollectionsResponse{Collections: allowed}, http.StatusOK)
}

// List обрабатывает GET /api/v1/collections/{collection}/documents?deleted=true
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.authorize(w, r)
	if !ok {
		return
	}

	includeDeleted := false
	if raw := r.URL.Query().Get("deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.sendError(w, "deleted must be a boolean", http.StatusBadRequest)
			return
		}
		includeDeleted = v
	}

	docs, err := h.storage.ListDocuments(r.Context(), collection, includeDeleted)
	if err != nil {
		h.logger.Error("Failed to list documents", "collection", collection, "error", err)
		h.sendError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	h.sendJSON(w, api.DocumentsResponse{Documents: docs}, http.StatusOK)
}

// Get обрабатывает GET /api/v1/collections/{collection}/documents/{id}
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.authorize(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := validation.ValidateDocumentID(id); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.storage.GetDocument(r.Context(), collection, id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			h.sendError(w, "document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get document", "collection", collection, "id", id, "error", err)
		h.sendError(w, "failed to get document", http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, doc, http.StatusOK)
}
