// Package chunker splits extracted text into overlapping segments sized for
// embedding and retrieval.
package chunker

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Split cuts text into chunks of at most chunkSize characters with the given
// overlap between consecutive chunks. Offsets are measured in runes, never
// bytes, so a cut cannot land inside a multi-byte character. When the
// tentative cut point falls mid-text, the cut is moved back to the last
// period after the midpoint of the chunk so boundaries land on sentence ends
// where possible. Chunks are trimmed; empty ones are dropped. The next start
// is max(start+chunkSize-overlap, end), which guarantees forward progress
// even for degenerate overlap >= chunkSize configurations.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end < len(runes) {
			// Prefer a sentence boundary in the back half of the chunk.
			if dot := lastPeriod(runes[start:end]); dot != -1 && dot > chunkSize/2 {
				end = start + dot + 1
			}
		} else {
			end = len(runes)
		}

		if c := strings.TrimSpace(string(runes[start:end])); c != "" {
			chunks = append(chunks, c)
		}

		next := start + chunkSize - overlap
		if next < end {
			next = end
		}
		start = next
	}
	return chunks
}

func lastPeriod(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == '.' {
			return i
		}
	}
	return -1
}
