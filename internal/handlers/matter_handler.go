package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// MatterHandler manages matter CRUD and matter-scoped listings
type MatterHandler struct {
	matters   interfaces.MatterStorage
	documents interfaces.DocumentStorage
	versions  interfaces.VersionStorage
	audit     interfaces.AuditStorage
	logger    arbor.ILogger
}

func NewMatterHandler(storage interfaces.StorageManager) *MatterHandler {
	return &MatterHandler{
		matters:   storage.MatterStorage(),
		documents: storage.DocumentStorage(),
		versions:  storage.VersionStorage(),
		audit:     storage.AuditStorage(),
		logger:    common.GetLogger(),
	}
}

type createMatterRequest struct {
	MatterNumber string `json:"matter_number"`
	Name         string `json:"matter_name"`
	Type         string `json:"matter_type"`
	Jurisdiction string `json:"jurisdiction"`
	CaseNumber   string `json:"case_number"`
	Description  string `json:"description"`
}

// ListHandler handles GET /api/matters and POST /api/matters
func (h *MatterHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		matters, err := h.matters.ListMatters(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"matters": matters,
			"count":   len(matters),
		})
	case "POST":
		h.createMatter(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MatterHandler) createMatter(w http.ResponseWriter, r *http.Request) {
	var req createMatterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "matter_name is required")
		return
	}

	now := time.Now().UTC()
	matter := &models.Matter{
		ID:           common.NewMatterID(),
		MatterNumber: req.MatterNumber,
		Name:         req.Name,
		Type:         req.Type,
		Jurisdiction: req.Jurisdiction,
		CaseNumber:   req.CaseNumber,
		Status:       models.MatterActive,
		Description:  req.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.matters.SaveMatter(r.Context(), matter); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("matter_id", matter.ID).Str("name", matter.Name).Msg("Matter created")
	WriteJSON(w, http.StatusCreated, matter)
}

// MatterRoutes handles /api/matters/{id} and subresources
func (h *MatterHandler) MatterRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/matters/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "matter id required")
		return
	}
	matterID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case "GET":
			h.getMatter(w, r, matterID)
		case "DELETE":
			h.deleteMatter(w, r, matterID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "documents":
		if !RequireMethod(w, r, "GET") {
			return
		}
		docs, err := h.documents.ByMatter(r.Context(), matterID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"matter_id": matterID,
			"documents": docs,
			"count":     len(docs),
		})
	case "audit":
		if !RequireMethod(w, r, "GET") {
			return
		}
		entries, err := h.audit.ListByMatter(r.Context(), matterID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"matter_id": matterID,
			"entries":   entries,
			"count":     len(entries),
		})
	default:
		WriteError(w, http.StatusNotFound, "unknown matter resource")
	}
}

func (h *MatterHandler) getMatter(w http.ResponseWriter, r *http.Request, id string) {
	matter, err := h.matters.GetMatter(r.Context(), id)
	if err != nil {
		if err == interfaces.ErrNotFound {
			WriteError(w, http.StatusNotFound, "matter not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, matter)
}

// deleteMatter removes the matter, its documents and their version history
func (h *MatterHandler) deleteMatter(w http.ResponseWriter, r *http.Request, id string) {
	docs, err := h.documents.ByMatter(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	docIDs := make([]string, 0, len(docs))
	for _, doc := range docs {
		docIDs = append(docIDs, doc.ID)
	}

	if err := h.versions.DeleteByDocuments(r.Context(), docIDs); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.documents.DeleteByMatter(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.matters.DeleteMatter(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("matter_id", id).Int("documents", len(docs)).Msg("Matter deleted")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "deleted",
		"matter_id":         id,
		"documents_removed": len(docs),
	})
}
