package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/common"
	"github.com/lexhold/lexhold/internal/interfaces"
	"github.com/lexhold/lexhold/internal/models"
	"github.com/lexhold/lexhold/internal/services/hashing"
	"github.com/lexhold/lexhold/internal/services/similarity"
)

// Service is the ingestion orchestrator. Per-file failures never escape as
// errors; every outcome is reported through the IngestResult. Files with
// identical content in the same matter are serialized on a per-(matter,hash)
// lock so the exact-duplicate check and the insert cannot interleave.
type Service struct {
	storage    interfaces.StorageManager
	extraction interfaces.ExtractionService
	duplicates interfaces.DuplicateService
	versions   interfaces.VersionService
	files      interfaces.FileStore
	indexer    interfaces.Indexer // Optional, best-effort
	config     *common.IngestionConfig
	logger     arbor.ILogger
	validate   *validator.Validate
	runID      string

	mu    sync.Mutex
	locks map[string]*contentLock
}

// NewService creates an ingestion orchestrator with a fresh run id.
// indexer may be nil when no downstream index is configured.
func NewService(
	storage interfaces.StorageManager,
	extraction interfaces.ExtractionService,
	duplicates interfaces.DuplicateService,
	versions interfaces.VersionService,
	files interfaces.FileStore,
	indexer interfaces.Indexer,
	config *common.IngestionConfig,
	logger arbor.ILogger,
) interfaces.IngestionService {
	return &Service{
		storage:    storage,
		extraction: extraction,
		duplicates: duplicates,
		versions:   versions,
		files:      files,
		indexer:    indexer,
		config:     config,
		logger:     logger,
		validate:   validator.New(),
		runID:      common.NewRunID(),
		locks:      make(map[string]*contentLock),
	}
}

var _ interfaces.IngestionService = (*Service)(nil)

// RunID returns this service instance's ingestion-run correlation id
func (s *Service) RunID() string {
	return s.runID
}

// IngestFile processes a single file into a matter
func (s *Service) IngestFile(ctx context.Context, req *models.IngestRequest) *models.IngestResult {
	result := &models.IngestResult{
		Status:         models.IngestStatusPending,
		IngestionRunID: s.runID,
	}

	if err := s.validate.Struct(req); err != nil {
		return s.fail(result, fmt.Errorf("invalid ingest request: %w", err))
	}
	if req.FileName == "" {
		req.FileName = filepath.Base(req.FilePath)
	}

	if _, err := s.storage.MatterStorage().GetMatter(ctx, req.MatterID); err != nil {
		return s.fail(result, fmt.Errorf("matter %s not found: %w", req.MatterID, err))
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		return s.fail(result, fmt.Errorf("cannot read source file: %w", err))
	}

	digests, err := hashing.FileDigests(req.FilePath)
	if err != nil {
		return s.fail(result, fmt.Errorf("failed to hash file: %w", err))
	}

	// Identical content in the same matter races through the same lock so
	// the duplicate check below and the eventual insert cannot interleave.
	// The storage-level uniqueness backstop still covers multi-process use.
	unlock := s.lockContent(req.MatterID, digests.SHA256)
	defer unlock()

	s.logger.Info().
		Str("matter_id", req.MatterID).
		Str("file", req.FileName).
		Str("sha256", digests.SHA256).
		Msg("Ingesting file")

	if existing, err := s.duplicates.FindExactDuplicate(ctx, digests.SHA256, req.MatterID); err != nil {
		return s.fail(result, fmt.Errorf("duplicate check failed: %w", err))
	} else if existing != nil {
		return s.duplicateResult(ctx, result, existing, req)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(req.FileName))
	extracted, err := s.extraction.ExtractText(ctx, req.FilePath, mimeType)
	if err != nil {
		// The extraction service reports failures in-band; an error here is
		// a programming fault, not a bad file
		return s.fail(result, fmt.Errorf("extraction failed: %w", err))
	}

	nearDups, err := s.duplicates.FindNearDuplicates(ctx, extracted.ExtractedText, req.MatterID, "")
	if err != nil {
		return s.fail(result, fmt.Errorf("near-duplicate scan failed: %w", err))
	}
	result.NearDuplicatesFound = len(nearDups)

	documentID := common.NewDocumentID()
	storedPath, err := s.files.MoveToProcessed(req.FilePath, req.MatterID, documentID, req.FileName)
	if err != nil {
		return s.fail(result, fmt.Errorf("failed to store file: %w", err))
	}

	// A near-duplicate is treated as a new version of its best match only
	// when the filenames also agree; a high content score alone routes to a
	// standalone document carrying the near-duplicate references instead.
	if parent := s.versionParent(req.FileName, nearDups); parent != nil {
		doc, err := s.createVersion(ctx, parent, req, documentID, storedPath, info.Size(), digests, extracted)
		if err == nil {
			result.Success = true
			result.Status = models.IngestStatusVersionCreated
			result.DocumentID = doc.ID
			result.IsNewVersion = true
			result.ExistingDocumentID = parent.Document.ID
			result.VersionNumber = doc.VersionNumber
			result.SimilarityScore = parent.Score
			s.enrich(ctx, doc, result)
			return result
		}
		s.logger.Warn().Err(err).
			Str("parent_id", parent.Document.ID).
			Str("file", req.FileName).
			Msg("Version creation failed, ingesting as new document")
	}

	doc := s.buildDocument(req, documentID, storedPath, info, digests, extracted, nearDups)

	if err := s.storage.DocumentStorage().InsertCurrentUnique(ctx, doc); err != nil {
		if err == interfaces.ErrDuplicateDocument {
			// Lost a race with another writer holding the same content.
			// Resolve to the row that won.
			if existing, qerr := s.storage.DocumentStorage().CurrentByHash(ctx, req.MatterID, digests.SHA256); qerr == nil {
				return s.duplicateResult(ctx, result, existing, req)
			}
		}
		return s.fail(result, fmt.Errorf("failed to save document: %w", err))
	}

	s.recordInitialVersion(ctx, doc)
	s.audit(ctx, models.AuditImport, doc.ID, req.MatterID,
		fmt.Sprintf("Imported %s", req.FileName),
		map[string]interface{}{"sha256": doc.SHA256, "near_duplicates": len(nearDups)})

	result.Success = true
	result.Status = models.IngestStatusCompleted
	result.DocumentID = doc.ID
	result.VersionNumber = doc.VersionNumber
	if len(nearDups) > 0 {
		result.SimilarityScore = nearDups[0].Score
	}
	s.enrich(ctx, doc, result)

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("matter_id", req.MatterID).
		Int("near_duplicates", len(nearDups)).
		Msg("Document ingested")
	return result
}

// IngestBatch processes several files under this service's run id
func (s *Service) IngestBatch(ctx context.Context, reqs []*models.IngestRequest) *models.BatchResult {
	batch := &models.BatchResult{
		IngestionRunID: s.runID,
		Total:          len(reqs),
		Results:        make([]*models.IngestResult, 0, len(reqs)),
	}

	for _, req := range reqs {
		res := s.IngestFile(ctx, req)
		batch.Results = append(batch.Results, res)

		switch {
		case res.Status == models.IngestStatusDuplicate:
			batch.Duplicates++
		case res.Status == models.IngestStatusVersionCreated:
			batch.Versions++
			batch.Succeeded++
		case res.Success:
			batch.Succeeded++
		default:
			batch.Failed++
		}
	}

	s.logger.Info().
		Int("total", batch.Total).
		Int("succeeded", batch.Succeeded).
		Int("duplicates", batch.Duplicates).
		Int("versions", batch.Versions).
		Int("failed", batch.Failed).
		Msg("Ingestion batch complete")
	return batch
}

// directoryExtensions lists the file types picked up by directory scans.
// Anything else is skipped silently rather than reported as a failure.
var directoryExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true,
	".msg": true, ".eml": true,
	".txt": true, ".md": true,
	".csv": true, ".xlsx": true, ".xls": true,
}

// IngestDirectory walks root and ingests every supported file into the
// matter under this service's run id
func (s *Service) IngestDirectory(ctx context.Context, root, matterID string, recursive bool) (*models.BatchResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var reqs []*models.IngestRequest
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !directoryExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		reqs = append(reqs, &models.IngestRequest{
			FilePath: path,
			MatterID: matterID,
			FileName: d.Name(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("directory walk failed: %w", walkErr)
	}

	s.logger.Info().
		Str("root", root).
		Str("matter_id", matterID).
		Int("files", len(reqs)).
		Bool("recursive", recursive).
		Msg("Directory scan complete")

	return s.IngestBatch(ctx, reqs), nil
}

// versionParent returns the best near-duplicate when it clears both the
// content threshold and the filename-stem threshold, or nil. Only the
// top-ranked candidate is considered; a lower-ranked match with a closer
// filename must not steal the chain from the best content match.
func (s *Service) versionParent(fileName string, nearDups []models.ScoredDocument) *models.ScoredDocument {
	if len(nearDups) == 0 {
		return nil
	}

	candidate := &nearDups[0]
	if candidate.Score < s.config.PotentialVersionThreshold {
		return nil
	}

	nameScore := similarity.FilenameSimilarity(fileName, candidate.Document.FileName)
	if nameScore < s.config.FilenameSimilarityThreshold {
		s.logger.Debug().
			Str("candidate_id", candidate.Document.ID).
			Float64("content_score", candidate.Score).
			Float64("filename_score", nameScore).
			Msg("Version candidate rejected on filename similarity")
		return nil
	}

	return candidate
}

func (s *Service) createVersion(
	ctx context.Context,
	parent *models.ScoredDocument,
	req *models.IngestRequest,
	documentID, storedPath string,
	fileSize int64,
	digests hashing.Digests,
	extracted *interfaces.ExtractionResult,
) (*models.Document, error) {
	doc, err := s.versions.CreateNewVersion(ctx, parent.Document, interfaces.VersionInput{
		FilePath:          storedPath,
		FileSize:          fileSize,
		Text:              extracted.ExtractedText,
		RawText:           extracted.RawText,
		SHA256:            digests.SHA256,
		MD5:               digests.MD5,
		ChangeDescription: fmt.Sprintf("Ingested %s", req.FileName),
		DocumentID:        documentID,
		RunID:             s.runID,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, models.AuditVersionCreated, doc.ID, req.MatterID,
		fmt.Sprintf("Created version %d from %s", doc.VersionNumber, req.FileName),
		map[string]interface{}{"parent_id": parent.Document.ID, "similarity": parent.Score})
	return doc, nil
}

func (s *Service) buildDocument(
	req *models.IngestRequest,
	documentID, storedPath string,
	info os.FileInfo,
	digests hashing.Digests,
	extracted *interfaces.ExtractionResult,
	nearDups []models.ScoredDocument,
) *models.Document {
	now := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(req.FileName))

	docType := req.DocumentType
	if docType == "" {
		docType = inferDocumentType(ext)
	}

	doc := &models.Document{
		ID:               documentID,
		MatterID:         req.MatterID,
		Type:             docType,
		Title:            strings.TrimSuffix(req.FileName, ext),
		FileName:         req.FileName,
		FilePath:         storedPath,
		FileSize:         info.Size(),
		MimeType:         mime.TypeByExtension(ext),
		SHA256:           digests.SHA256,
		MD5:              digests.MD5,
		RawText:          extracted.RawText,
		ExtractedText:    extracted.ExtractedText,
		TextLength:       len(extracted.ExtractedText),
		Confidentiality:  models.ConfidentialityInternal,
		Tags:             req.Tags,
		Categories:       req.Categories,
		ProcessingStatus: models.StatusCompleted,
		ProcessedAt:      &now,
		VersionNumber:    1,
		IsCurrentVersion: true,
		CreatedAt:        now,
		UpdatedAt:        now,
		IngestedAt:       now,
	}

	s.applyExtractionMetadata(doc, extracted)
	doc.SetIngestionRunID(s.runID)

	if len(nearDups) > 0 {
		refs := make([]models.NearDuplicateRef, 0, len(nearDups))
		for _, nd := range nearDups {
			refs = append(refs, models.NearDuplicateRef{DocumentID: nd.Document.ID, Score: nd.Score})
		}
		doc.SetNearDuplicates(refs)
		doc.ProcessingStatus = models.StatusNeedsReview
	}

	return doc
}

// applyExtractionMetadata maps extractor output onto typed document fields
// and carries the remainder in the metadata bag
func (s *Service) applyExtractionMetadata(doc *models.Document, extracted *interfaces.ExtractionResult) {
	for key, value := range extracted.Metadata {
		switch key {
		case "author", "sender":
			if doc.Author == "" {
				if v, ok := value.(string); ok {
					doc.Author = v
				}
			}
		case "subject":
			if v, ok := value.(string); ok && v != "" {
				doc.Title = v
			}
		case "date", "created":
			if t := parseMetadataTime(value); t != nil && doc.CreatedDate == nil {
				doc.CreatedDate = t
			}
		case "modified":
			if t := parseMetadataTime(value); t != nil {
				doc.ModifiedDate = t
			}
		case "extraction_error":
			if v, ok := value.(string); ok {
				doc.SetExtractionError(v)
				doc.ProcessingStatus = models.StatusNeedsReview
				doc.ProcessingError = v
			}
		default:
			doc.EnsureMetadata()
			doc.Metadata[key] = value
		}
	}
}

func parseMetadataTime(value interface{}) *time.Time {
	v, ok := value.(string)
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

func (s *Service) duplicateResult(ctx context.Context, result *models.IngestResult, existing *models.Document, req *models.IngestRequest) *models.IngestResult {
	s.audit(ctx, models.AuditDuplicate, existing.ID, req.MatterID,
		fmt.Sprintf("Rejected exact duplicate of %s", existing.FileName),
		map[string]interface{}{"incoming_file": req.FileName, "sha256": existing.SHA256})

	result.Success = true
	result.Status = models.IngestStatusDuplicate
	result.IsDuplicate = true
	result.ExistingDocumentID = existing.ID
	result.DocumentID = existing.ID
	result.VersionNumber = existing.VersionNumber
	result.SimilarityScore = 1.0

	s.logger.Info().
		Str("existing_id", existing.ID).
		Str("file", req.FileName).
		Msg("Exact duplicate rejected")
	return result
}

// recordInitialVersion writes the version-1 history record. History is
// advisory; a write failure does not undo the committed document.
func (s *Service) recordInitialVersion(ctx context.Context, doc *models.Document) {
	record := &models.DocumentVersion{
		ID:              common.NewVersionID(),
		DocumentID:      doc.ID,
		VersionNumber:   1,
		SHA256:          doc.SHA256,
		MD5:             doc.MD5,
		FilePath:        doc.FilePath,
		FileSize:        doc.FileSize,
		ChangeType:      models.ChangeInitial,
		ContentChanged:  true,
		SimilarityScore: 0,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.storage.VersionStorage().Append(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("Failed to record initial version")
	}
}

func (s *Service) enrich(ctx context.Context, doc *models.Document, result *models.IngestResult) {
	if s.indexer == nil {
		return
	}
	step := models.SubStepResult{Name: "index", Success: true}
	if err := s.indexer.IndexDocument(ctx, doc); err != nil {
		step.Success = false
		step.Error = err.Error()
		s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("Document indexing failed")
	}
	result.Enrichment = append(result.Enrichment, step)
}

func (s *Service) audit(ctx context.Context, action, resourceID, matterID, description string, metadata map[string]interface{}) {
	entry := &models.AuditEntry{
		ID:           common.NewAuditID(),
		ActionType:   action,
		ResourceType: "document",
		ResourceID:   resourceID,
		MatterID:     matterID,
		Description:  description,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]interface{}{}
	}
	entry.Metadata["ingestion_run_id"] = s.runID
	if err := s.storage.AuditStorage().Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("Failed to record audit entry")
	}
}

func (s *Service) fail(result *models.IngestResult, err error) *models.IngestResult {
	result.Status = models.IngestStatusFailed
	result.Error = err.Error()
	s.logger.Warn().Err(err).Msg("Ingestion failed")
	return result
}

// contentLock is one refcounted entry in the per-(matter, sha256) lock map
type contentLock struct {
	mu   sync.Mutex
	refs int
}

// lockContent returns the unlock func for the (matter, sha256) pair.
// Entries are refcounted and removed when the last holder releases, so the
// map does not retain a mutex per distinct content hash.
func (s *Service) lockContent(matterID, sha256 string) func() {
	key := matterID + "|" + sha256

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &contentLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func inferDocumentType(ext string) string {
	switch ext {
	case ".pdf":
		return models.DocTypePDF
	case ".docx", ".doc":
		return models.DocTypeDocx
	case ".eml", ".msg":
		return models.DocTypeEmail
	case ".txt", ".md":
		return models.DocTypeNote
	case ".xlsx", ".xls", ".csv":
		return models.DocTypeFinancialRecord
	default:
		return models.DocTypeOther
	}
}
