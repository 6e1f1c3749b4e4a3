package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextReturnsSingleChunk(t *testing.T) {
	text := "Hello world. This is a test document."
	chunks := Split(text, 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Empty(t, Split("", 1000, 200))
	assert.Empty(t, Split("   ", 2, 1)) // whitespace-only chunks are dropped
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// A period sits past the midpoint of the first chunk; the cut should land
	// just after it rather than at the raw offset.
	text := strings.Repeat("a", 70) + ". " + strings.Repeat("b", 200)
	chunks := Split(text, 100, 20)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0], "."), "first chunk should end at the sentence boundary, got %q", chunks[0])
}

func TestSplitIgnoresBoundaryBeforeMidpoint(t *testing.T) {
	// The only period is in the front half, so the chunk cuts at the raw offset.
	text := strings.Repeat("a", 10) + ". " + strings.Repeat("b", 300)
	chunks := Split(text, 100, 20)
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], 100)
}

func TestSplitCoversFullText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{"plain run", strings.Repeat("abcde ", 500), 100, 20},
		{"sentences", strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60), 120, 30},
		{"no overlap", strings.Repeat("xyz", 400), 50, 0},
		{"multi-byte runes", strings.Repeat("é", 400), 101, 20},
		{"multi-byte sentences", strings.Repeat("Öffentliche Straßenbahnen fahren täglich. ", 40), 90, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.chunkSize, tt.overlap)
			require.NotEmpty(t, chunks)

			// Every character of the input shows up in order across the
			// chunks; overlap only repeats text, never skips it. Cuts must
			// never split a multi-byte character.
			cursor := 0
			for _, c := range chunks {
				assert.NotEmpty(t, c)
				assert.True(t, utf8.ValidString(c), "chunk is not valid UTF-8: %q", c)
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.chunkSize)
				idx := strings.Index(tt.text[cursor:], c)
				require.GreaterOrEqual(t, idx, 0, "chunk not found in remaining text")
				cursor += idx
			}
			// The last chunk reaches the end of the (trimmed) input.
			last := chunks[len(chunks)-1]
			assert.True(t, strings.HasSuffix(strings.TrimSpace(tt.text), last))
		})
	}
}

func TestSplitDegenerateOverlapTerminates(t *testing.T) {
	// overlap >= chunkSize must still make forward progress.
	text := strings.Repeat("word ", 200)
	chunks := Split(text, 50, 50)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
	}
}
