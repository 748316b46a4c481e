package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/interfaces"
)

// PDFExtractor extracts text content from PDF files using pdfcpu
type PDFExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewPDFExtractor creates a PDF extractor
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	tempDir := filepath.Join(os.TempDir(), "lexhold-pdf")
	os.MkdirAll(tempDir, 0755)

	return &PDFExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

var _ interfaces.TextExtractor = (*PDFExtractor)(nil)

func (e *PDFExtractor) Supports(ext, mimeType string) bool {
	return ext == ".pdf" || strings.Contains(mimeType, "pdf")
}

// pagesDir allocates a fresh output directory for one extraction. pdfcpu
// writes page content files into it; sharing a directory across concurrent
// extractions would mix page files and let one call remove another's output.
func (e *PDFExtractor) pagesDir() (string, error) {
	return os.MkdirTemp(e.tempDir, "pages_")
}

func (e *PDFExtractor) Extract(ctx context.Context, path, mimeType string) (*interfaces.ExtractionResult, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := e.pagesDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}

		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok && text != "" {
			if builder.Len() > 0 {
				builder.WriteString("\n\n")
			}
			builder.WriteString(text)
		}
	}

	raw := builder.String()
	metadata := map[string]interface{}{
		"page_count": pageCount,
	}

	return &interfaces.ExtractionResult{
		RawText:       raw,
		ExtractedText: strings.TrimSpace(raw),
		Metadata:      metadata,
	}, nil
}
