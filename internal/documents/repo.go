package documents

import "context"

// Repo defines persistence operations for documents. The status
// transition methods are conditional updates: they only apply when the
// row is still in the expected prior status, so duplicate queue
// deliveries and concurrent workers cannot clobber each other.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// Get loads a document without user scoping. Used by the worker,
	// which acts on queue messages rather than user requests.
	Get(ctx context.Context, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)

	// ClaimProcessing moves pending or processing -> processing, so a
	// redelivery can take over a job a crashed worker never finished.
	// It reports false when the document is already terminal.
	ClaimProcessing(ctx context.Context, documentID string) (bool, error)
	// CompleteProcessing moves processing -> completed and stores the
	// results. A no-op unless the document is currently processing.
	CompleteProcessing(ctx context.Context, documentID, summary string, answers []QA, processingTimeMs int64) error
	// FailProcessing moves processing -> failed and records the error.
	FailProcessing(ctx context.Context, documentID, errorMessage string) error
}
