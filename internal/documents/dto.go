package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
// Summary, answers, and error fields are only populated once processing
// reaches a terminal status.
type DocumentResponse struct {
	DocumentID       string    `json:"documentId"`
	Filename         string    `json:"filename"`
	MimeType         string    `json:"mimeType"`
	SizeBytes        int64     `json:"sizeBytes"`
	Status           string    `json:"status"`
	Questions        []string  `json:"questions,omitempty"`
	Summary          *string   `json:"summary,omitempty"`
	Answers          []QA      `json:"answers,omitempty"`
	ErrorMessage     *string   `json:"errorMessage,omitempty"`
	ProcessingTimeMs *int64    `json:"processingTimeMs,omitempty"`
	UploadedAt       time.Time `json:"uploadedAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:       doc.ID,
		Filename:         doc.Filename,
		MimeType:         doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		Status:           doc.Status,
		Questions:        doc.Questions,
		Summary:          doc.Summary,
		Answers:          doc.Answers,
		ErrorMessage:     doc.ErrorMessage,
		ProcessingTimeMs: doc.ProcessingTimeMs,
		UploadedAt:       doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}
