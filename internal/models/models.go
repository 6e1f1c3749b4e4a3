package models

import (
	"time"
)

// Document processing statuses. A document moves
// uploaded -> extracting -> (extracted | extraction_failed) -> processed.
const (
	StatusUploaded         = "uploaded"
	StatusExtracting       = "extracting"
	StatusExtracted        = "extracted"
	StatusExtractionFailed = "extraction_failed"
	StatusProcessed        = "processed"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Document represents a user-uploaded document and its processing results.
// Content, Summary, Category and ProcessedAt stay nil until the indexing
// pipeline has run; a non-nil ProcessedAt implies non-nil Content.
type Document struct {
	ID               string     `db:"id" json:"id"`
	OwnerID          string     `db:"owner_id" json:"owner_id"`
	FileName         string     `db:"file_name" json:"file_name"`
	OriginalFileName string     `db:"original_file_name" json:"original_filename"`
	StorageKey       string     `db:"storage_key" json:"-"`
	MimeType         string     `db:"mime_type" json:"mime_type"`
	FileSize         int64      `db:"file_size" json:"file_size"`
	Content          *string    `db:"content" json:"content,omitempty"`
	Summary          *string    `db:"summary" json:"summary,omitempty"`
	Category         *string    `db:"category" json:"category,omitempty"`
	Confidence       float64    `db:"confidence_score" json:"confidence_score"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt      *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// DocumentUpdate carries the single logical write the pipeline performs when
// processing completes. All fields land in one statement so a reader never
// observes processed_at without content.
type DocumentUpdate struct {
	Content     string
	Category    string
	Confidence  float64
	Summary     string
	Status      string
	ProcessedAt time.Time
}

// DocumentAnalysis is an append-only audit row for one AI operation
// (classification, summarization, qa) performed on a document.
type DocumentAnalysis struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Type       string    `db:"analysis_type" json:"analysis_type"`
	Result     string    `db:"result" json:"result"`
	Confidence float64   `db:"confidence" json:"confidence"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Answer is the result of a question-answering run over a document.
type Answer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}
