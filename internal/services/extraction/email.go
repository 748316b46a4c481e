package extraction

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/interfaces"
)

// EmailExtractor extracts the text body and envelope metadata from RFC 5322
// email files (.eml)
type EmailExtractor struct {
	logger arbor.ILogger
}

// NewEmailExtractor creates an email extractor
func NewEmailExtractor(logger arbor.ILogger) *EmailExtractor {
	return &EmailExtractor{logger: logger}
}

var _ interfaces.TextExtractor = (*EmailExtractor)(nil)

func (e *EmailExtractor) Supports(ext, mimeType string) bool {
	return ext == ".eml" || strings.Contains(mimeType, "rfc822")
}

func (e *EmailExtractor) Extract(ctx context.Context, path, mimeType string) (*interfaces.ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open email file: %w", err)
	}
	defer f.Close()

	mr, err := mail.CreateReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	metadata := map[string]interface{}{}
	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		metadata["subject"] = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		metadata["sender"] = from[0].Address
		if from[0].Name != "" {
			metadata["author"] = from[0].Name
		}
	}
	if to, err := mr.Header.AddressList("To"); err == nil && len(to) > 0 {
		recipients := make([]string, 0, len(to))
		for _, addr := range to {
			recipients = append(recipients, addr.Address)
		}
		metadata["to"] = strings.Join(recipients, ", ")
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		metadata["date"] = date.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	// Prefer the first text/plain part; fall back to any inline text part
	var plainBody, fallbackBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("Failed to read email part, continuing")
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()

		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		if contentType == "text/plain" && plainBody == "" {
			plainBody = string(body)
		} else if fallbackBody == "" {
			fallbackBody = string(body)
		}
	}

	body := plainBody
	if body == "" {
		body = fallbackBody
	}

	return &interfaces.ExtractionResult{
		RawText:       body,
		ExtractedText: strings.TrimSpace(body),
		Metadata:      metadata,
	}, nil
}
