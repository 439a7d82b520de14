package document

import "time"

// Processing states for a document's summarization run.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document is a user-owned source document awaiting or holding a summary.
// UserID is the owning local user; every repository operation is scoped by it.
type Document struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	UserID           string    `json:"-" bson:"userId"`
	Title            string    `json:"title" bson:"title"`
	DocumentType     string    `json:"documentType" bson:"documentType"`
	InputType        string    `json:"inputType" bson:"inputType"`
	OriginalFilename string    `json:"originalFilename,omitempty" bson:"originalFilename,omitempty"`
	Status           string    `json:"status" bson:"status"`
	ErrorMessage     string    `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	StorageKey       string    `json:"-" bson:"storageKey,omitempty"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Summary is the structured result produced by the summarization pipeline.
// KeyFacts and FlaggedTerms are stored as raw JSON strings, the shape the
// pipeline emits.
type Summary struct {
	DocumentID   string    `json:"-" bson:"documentId"`
	PlainSummary string    `json:"plainSummary" bson:"plainSummary"`
	KeyFacts     string    `json:"keyFacts" bson:"keyFacts"`
	FlaggedTerms string    `json:"flaggedTerms" bson:"flaggedTerms"`
	GeneratedAt  time.Time `json:"generatedAt" bson:"generatedAt"`
}

// SummaryResult is what the summarization collaborator returns for one run.
// The service unpacks it onto the Document and Summary records.
type SummaryResult struct {
	PlainSummary string
	KeyFacts     string
	FlaggedTerms string
	Title        string
	DocumentType string
}
