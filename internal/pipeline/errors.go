package pipeline

import (
	"context"
	"errors"

	"docqa-backend/internal/extract"
	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/storage/object"
)

// Failure codes recorded on failed documents.
const (
	FailureCodeBlobMissing   = "BLOB_MISSING"
	FailureCodeUnsupported   = "UNSUPPORTED_FORMAT"
	FailureCodeEmptyDocument = "EMPTY_DOCUMENT"
	FailureCodeLLM           = "LLM_ERROR"
	FailureCodeTimeout       = "PROCESSING_TIMEOUT"
	FailureCodeInternal      = "INTERNAL_ERROR"
)

// DocumentFailedError reports that processing failed and the failure
// was persisted on the document. Queue consumers should ack the
// delivery; redelivering cannot change the outcome.
type DocumentFailedError struct {
	DocumentID string
	Code       string
	Err        error
}

func (e *DocumentFailedError) Error() string {
	if e.Err == nil {
		return "document " + e.DocumentID + " failed: " + e.Code
	}
	return "document " + e.DocumentID + " failed: " + e.Err.Error()
}

func (e *DocumentFailedError) Unwrap() error { return e.Err }

// classifyFailure maps a pipeline error to a stable failure code.
func classifyFailure(err error) string {
	switch {
	case errors.Is(err, object.ErrNotFound):
		return FailureCodeBlobMissing
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return FailureCodeUnsupported
	case errors.Is(err, extract.ErrEmptyDocument):
		return FailureCodeEmptyDocument
	}
	var lerr *llm.Error
	if errors.As(err, &lerr) {
		return FailureCodeLLM
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureCodeTimeout
	}
	return FailureCodeInternal
}
