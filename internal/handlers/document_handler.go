package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
)

// DocumentHandler serves documents, their version chains and history
type DocumentHandler struct {
	documents  interfaces.DocumentStorage
	versions   interfaces.VersionService
	duplicates interfaces.DuplicateService
	canonical  interfaces.CanonicalService
	logger     arbor.ILogger
}

func NewDocumentHandler(storage interfaces.StorageManager, versions interfaces.VersionService, duplicates interfaces.DuplicateService, canonical interfaces.CanonicalService) *DocumentHandler {
	return &DocumentHandler{
		documents:  storage.DocumentStorage(),
		versions:   versions,
		duplicates: duplicates,
		canonical:  canonical,
		logger:     common.GetLogger(),
	}
}

// DocumentRoutes handles /api/documents/{id} and subresources
func (h *DocumentHandler) DocumentRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "document id required")
		return
	}
	documentID := parts[0]

	if len(parts) == 2 && parts[1] == "ensure-canonical" {
		h.ensureCanonical(w, r, documentID)
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	if len(parts) == 1 {
		h.getDocument(w, r, documentID)
		return
	}

	switch parts[1] {
	case "chain":
		chain, err := h.versions.ChainFor(r.Context(), documentID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"document_id": documentID,
			"chain":       chain,
			"length":      len(chain),
		})
	case "current":
		doc, err := h.versions.CurrentVersion(r.Context(), documentID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	case "canonical":
		doc, err := h.versions.CanonicalVersion(r.Context(), documentID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	case "history":
		records, err := h.versions.History(r.Context(), documentID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"document_id": documentID,
			"history":     records,
			"count":       len(records),
		})
	case "compare":
		h.compareDocuments(w, r, documentID, r.URL.Query().Get("with"))
	default:
		WriteError(w, http.StatusNotFound, "unknown document resource")
	}
}

func (h *DocumentHandler) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

// ensureCanonical handles POST /api/documents/{id}/ensure-canonical: runs
// canonical selection for the document's duplicate group if none is marked
func (h *DocumentHandler) ensureCanonical(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	doc, err := h.canonical.EnsureCanonical(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_id":    doc.ID,
		"version_number": doc.VersionNumber,
		"is_canonical":   doc.IsCanonical(),
		"file_name":      doc.FileName,
	})
}

// compareDocuments handles GET /api/documents/{id}/compare?with={otherID}
func (h *DocumentHandler) compareDocuments(w http.ResponseWriter, r *http.Request, id, otherID string) {
	if otherID == "" {
		WriteError(w, http.StatusBadRequest, "query parameter 'with' is required")
		return
	}

	a, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	b, err := h.documents.GetDocument(r.Context(), otherID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	comparison := h.duplicates.CompareDocuments(a, b)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_a": a.ID,
		"document_b": b.ID,
		"comparison": comparison,
	})
}

func (h *DocumentHandler) writeLookupError(w http.ResponseWriter, err error) {
	if err == interfaces.ErrNotFound {
		WriteError(w, http.StatusNotFound, "document not found")
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error())
}
