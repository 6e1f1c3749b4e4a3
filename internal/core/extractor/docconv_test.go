package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/intellidoc/internal/core"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("application/pdf"))
	assert.True(t, Supported("text/plain"))
	assert.True(t, Supported("image/png"))
	assert.False(t, Supported("application/zip"))
	assert.False(t, Supported(""))
}

func TestExtractPlainText(t *testing.T) {
	e := NewDocconvExtractor(false)

	got, err := e.ExtractText(context.Background(), []byte("  hello world  "), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, "text/plain", got.Meta["mime_type"])
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewDocconvExtractor(false)

	_, err := e.ExtractText(context.Background(), []byte("data"), "application/zip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedType))
}

func TestExtractEmptyText(t *testing.T) {
	e := NewDocconvExtractor(false)

	_, err := e.ExtractText(context.Background(), []byte("   \n\t "), "text/plain")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrExtractionFailed))
}
