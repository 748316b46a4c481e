package extraction

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/interfaces"
)

// Service routes files to the matching extractor. Extraction is best-effort
// by contract: any failure surfaces as empty extracted text (plus an error
// marker in the metadata), never as an ingestion failure. Empty text routes
// the file down the always-new-document path.
type Service struct {
	extractors []interfaces.TextExtractor
	logger     arbor.ILogger
}

// NewService creates an extraction service with the standard extractors
func NewService(logger arbor.ILogger) interfaces.ExtractionService {
	return &Service{
		extractors: []interfaces.TextExtractor{
			NewPlainTextExtractor(),
			NewPDFExtractor(logger),
			NewEmailExtractor(logger),
		},
		logger: logger,
	}
}

func (s *Service) ExtractText(ctx context.Context, path, mimeType string) (*interfaces.ExtractionResult, error) {
	ext := strings.ToLower(filepath.Ext(path))

	for _, extractor := range s.extractors {
		if !extractor.Supports(ext, mimeType) {
			continue
		}

		result, err := extractor.Extract(ctx, path, mimeType)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Str("ext", ext).Msg("Text extraction failed")
			return &interfaces.ExtractionResult{
				Metadata: map[string]interface{}{"extraction_error": err.Error()},
			}, nil
		}
		if result.Metadata == nil {
			result.Metadata = map[string]interface{}{}
		}
		return result, nil
	}

	s.logger.Debug().Str("path", path).Str("mime_type", mimeType).Msg("No extractor for file type")
	return &interfaces.ExtractionResult{Metadata: map[string]interface{}{}}, nil
}
