package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Ingestion
	mux.HandleFunc("/api/ingest", s.app.IngestionHandler.IngestHandler)
	mux.HandleFunc("/api/ingest/batch", s.app.IngestionHandler.BatchHandler)
	mux.HandleFunc("/api/ingest/directory", s.app.IngestionHandler.DirectoryHandler)

	// API routes - Matters
	mux.HandleFunc("/api/matters", s.app.MatterHandler.ListHandler)
	mux.HandleFunc("/api/matters/", s.app.MatterHandler.MatterRoutes) // GET/DELETE /{id}, /{id}/documents, /{id}/audit

	// API routes - Documents
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.DocumentRoutes) // /{id}, /{id}/chain, /{id}/current, /{id}/canonical, /{id}/history, /{id}/compare, /{id}/ensure-canonical

	// API routes - Duplicates and canonical selection
	mux.HandleFunc("/api/duplicates/", s.app.DuplicateHandler.GroupsHandler) // GET /{matterID}
	mux.HandleFunc("/api/canonical/select", s.app.DuplicateHandler.SelectCanonicalHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
