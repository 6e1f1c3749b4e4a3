package core

import "errors"

// Sentinel errors for the failure taxonomy. Callers match with errors.Is;
// the HTTP layer maps them onto status codes.
var (
	// ErrNotFound: no document with that id owned by the caller.
	ErrNotFound = errors.New("document not found")

	// ErrNotProcessed: the document exists but has no extracted content yet.
	ErrNotProcessed = errors.New("document not processed")

	// ErrUnsupportedType: the uploaded mime type is not on the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtractionFailed: extraction errored or yielded empty text. Terminal
	// for this document version; re-upload to retry.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmbeddingUnavailable: no vector could be produced for a query.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrCapabilityUnavailable: an AI backend could not be reached.
	ErrCapabilityUnavailable = errors.New("ai capability unavailable")
)
