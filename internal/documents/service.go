package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa-backend/internal/queue"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
)

// DefaultQuestions are asked when an upload supplies none.
var DefaultQuestions = []string{
	"What is the main topic or theme of this document?",
	"What are the key points or arguments presented?",
	"What are the main conclusions or recommendations?",
	"Are there any important facts, figures, or statistics mentioned?",
}

const maxQuestions = 10

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Queue queue.Client
	// Process runs the pipeline inline when no queue is configured.
	// Upload dispatches it on a goroutine, mirroring how a worker
	// would pick the job up.
	Process func(ctx context.Context, documentID string, questions []string)
}

// Upload saves the file to object storage, records the document as
// pending, and hands it off for asynchronous processing.
func (s *Service) Upload(ctx context.Context, userID, filename string, questions []string, r io.Reader) (Document, error) {
	if strings.TrimSpace(filename) == "" {
		return Document{}, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	questions, err := normalizeQuestions(questions)
	if err != nil {
		return Document{}, err
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, filename, r)
	if err != nil {
		return Document{}, err
	}
	if !isSupportedMime(mimeType) {
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("documents.upload.cleanup_failed", map[string]any{
				"storage_key": storageKey,
				"err":         delErr.Error(),
			})
		}
		return Document{}, fmt.Errorf("%w: unsupported content type %s", ErrInvalidInput, mimeType)
	}

	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Filename:   filename,
		StorageKey: storageKey,
		SizeBytes:  size,
		MimeType:   mimeType,
		Status:     StatusPending,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if err := s.dispatch(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) dispatch(ctx context.Context, doc Document) error {
	requestID := RequestIDFromContext(ctx)
	if s.Queue != nil {
		msg := queue.Message{
			DocumentID: doc.ID,
			Questions:  doc.Questions,
			RequestID:  requestID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    queue.MessageVersion,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			return fmt.Errorf("enqueue document %s: %w", doc.ID, err)
		}
		return nil
	}
	if s.Process == nil {
		return errors.New("no queue or inline processor configured")
	}
	go s.Process(backgroundWithRequestID(ctx), doc.ID, doc.Questions)
	return nil
}

// Get returns a document owned by the user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, fmt.Errorf("%w: user id and document id are required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func normalizeQuestions(questions []string) ([]string, error) {
	var out []string
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		out = append(out, DefaultQuestions...)
	}
	if len(out) > maxQuestions {
		return nil, fmt.Errorf("%w: at most %d questions allowed", ErrInvalidInput, maxQuestions)
	}
	return out, nil
}

func isSupportedMime(mimeType string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}
