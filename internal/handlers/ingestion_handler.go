package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
)

// IngestionHandler exposes single-file and batch ingestion
type IngestionHandler struct {
	ingestion interfaces.IngestionService
	logger    arbor.ILogger
}

func NewIngestionHandler(ingestion interfaces.IngestionService) *IngestionHandler {
	return &IngestionHandler{
		ingestion: ingestion,
		logger:    common.GetLogger(),
	}
}

// IngestHandler handles POST /api/ingest
func (h *IngestionHandler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.IngestRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result := h.ingestion.IngestFile(r.Context(), &req)

	status := http.StatusOK
	if result.Status == models.IngestStatusFailed {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, result)
}

type batchIngestRequest struct {
	Files []*models.IngestRequest `json:"files"`
}

// BatchHandler handles POST /api/ingest/batch
func (h *IngestionHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req batchIngestRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Files) == 0 {
		WriteError(w, http.StatusBadRequest, "files is required")
		return
	}

	batch := h.ingestion.IngestBatch(r.Context(), req.Files)
	WriteJSON(w, http.StatusOK, batch)
}

type directoryIngestRequest struct {
	FolderPath string `json:"folder_path"`
	MatterID   string `json:"matter_id"`
	Recursive  *bool  `json:"recursive,omitempty"` // Defaults to true
}

// DirectoryHandler handles POST /api/ingest/directory
func (h *IngestionHandler) DirectoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req directoryIngestRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.FolderPath == "" || req.MatterID == "" {
		WriteError(w, http.StatusBadRequest, "folder_path and matter_id are required")
		return
	}

	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	batch, err := h.ingestion.IngestDirectory(r.Context(), req.FolderPath, req.MatterID, recursive)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, batch)
}
