package interfaces

import (
	"context"
)

// ExtractionResult is the output of text extraction for one file. The core
// only consumes ExtractedText and treats it as opaque; an extraction failure
// surfaces as empty text, which routes the file to the new-document path.
type ExtractionResult struct {
	RawText       string
	ExtractedText string
	Metadata      map[string]interface{}
}

// TextExtractor turns a file into plain text plus source metadata
type TextExtractor interface {
	// Supports reports whether this extractor handles the extension/MIME pair
	Supports(ext, mimeType string) bool

	// Extract produces text and metadata from the file at path
	Extract(ctx context.Context, path, mimeType string) (*ExtractionResult, error)
}

// ExtractionService routes a file to the matching extractor
type ExtractionService interface {
	ExtractText(ctx context.Context, path, mimeType string) (*ExtractionResult, error)
}
