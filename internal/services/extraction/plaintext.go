package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lexhold/lexhold/internal/interfaces"
)

// maxPlainTextSize caps how much of a text file is read for extraction
const maxPlainTextSize = 10 * 1024 * 1024 // 10 MB

// PlainTextExtractor handles plain text and simple markup files
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain text extractor
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

var _ interfaces.TextExtractor = (*PlainTextExtractor)(nil)

func (e *PlainTextExtractor) Supports(ext, mimeType string) bool {
	switch ext {
	case ".txt", ".md", ".csv", ".log":
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}

func (e *PlainTextExtractor) Extract(ctx context.Context, path, mimeType string) (*interfaces.ExtractionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	size := info.Size()
	truncated := false
	if size > maxPlainTextSize {
		size = maxPlainTextSize
		truncated = true
	}

	buf := make([]byte, size)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := string(buf[:n])
	metadata := map[string]interface{}{}
	if truncated {
		metadata["truncated"] = true
	}

	return &interfaces.ExtractionResult{
		RawText:       text,
		ExtractedText: strings.TrimSpace(text),
		Metadata:      metadata,
	}, nil
}
