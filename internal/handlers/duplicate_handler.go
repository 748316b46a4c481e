package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
)

// DuplicateHandler exposes duplicate-group discovery and canonical selection
type DuplicateHandler struct {
	duplicates interfaces.DuplicateService
	canonical  interfaces.CanonicalService
	logger     arbor.ILogger
}

func NewDuplicateHandler(duplicates interfaces.DuplicateService, canonical interfaces.CanonicalService) *DuplicateHandler {
	return &DuplicateHandler{
		duplicates: duplicates,
		canonical:  canonical,
		logger:     common.GetLogger(),
	}
}

// GroupsHandler handles GET /api/matters/{id}/duplicates via the duplicates route
func (h *DuplicateHandler) GroupsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	matterID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/duplicates/"), "/")
	if matterID == "" {
		WriteError(w, http.StatusBadRequest, "matter id required")
		return
	}

	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			WriteError(w, http.StatusBadRequest, "threshold must be a number in [0,1]")
			return
		}
		threshold = v
	}

	groups, err := h.duplicates.FindDuplicateGroups(r.Context(), matterID, threshold)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type groupView struct {
		Members []string `json:"members"`
		Size    int      `json:"size"`
	}
	views := make([]groupView, 0, len(groups))
	for _, group := range groups {
		ids := make([]string, 0, len(group))
		for _, doc := range group {
			ids = append(ids, doc.ID)
		}
		views = append(views, groupView{Members: ids, Size: len(ids)})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"matter_id": matterID,
		"groups":    views,
		"count":     len(views),
	})
}

type selectCanonicalRequest struct {
	MatterID string `json:"matter_id"`
}

// SelectCanonicalHandler handles POST /api/canonical/select
func (h *DuplicateHandler) SelectCanonicalHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req selectCanonicalRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.MatterID == "" {
		WriteError(w, http.StatusBadRequest, "matter_id is required")
		return
	}

	marked, err := h.canonical.SelectForMatter(r.Context(), req.MatterID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("matter_id", req.MatterID).Int("groups_marked", marked).Msg("Canonical selection triggered")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"matter_id":     req.MatterID,
		"groups_marked": marked,
	})
}
