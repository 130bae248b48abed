package documents

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// QA is one answered question. Answers keep the order the questions
// were submitted in, so they are stored as an array rather than a map.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Document represents an uploaded document owned by a user, together
// with its processing state and results.
type Document struct {
	ID               string
	UserID           string
	Filename         string
	StorageKey       string
	SizeBytes        int64
	MimeType         string
	Status           string
	Questions        []string
	Summary          *string
	Answers          []QA
	ErrorMessage     *string
	ProcessingTimeMs *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
