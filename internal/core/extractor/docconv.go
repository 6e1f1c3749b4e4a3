// Package extractor pulls plain text out of uploaded files via docconv.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/intellidoc/internal/core"
)

// allowedTypes is the upload allow-list. Anything else fails validation
// before a document record is ever created.
var allowedTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Supported reports whether the mime type is on the allow-list.
func Supported(mimeType string) bool {
	return allowedTypes[mimeType]
}

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
// OCR for image types goes through docconv's gosseract path.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, mimeType string) (*core.Extraction, error) {
	if !Supported(mimeType) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedType, mimeType)
	}

	// Plain text needs no conversion; docconv would pass it through anyway
	// but this keeps empty-input handling in one place.
	var text string
	if mimeType == "text/plain" {
		text = string(data)
	} else {
		res, err := docconv.Convert(bytes.NewReader(data), mimeType, e.useReadability)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrExtractionFailed, err)
		}
		text = res.Body
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: extracted empty text for %s", core.ErrExtractionFailed, mimeType)
	}

	return &core.Extraction{
		Text: text,
		Meta: map[string]string{"mime_type": mimeType},
	}, nil
}

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)
