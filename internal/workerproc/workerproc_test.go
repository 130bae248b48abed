package workerproc

import (
	"context"
	"errors"
	"testing"

	"docqa-backend/internal/documents"
	"docqa-backend/internal/queue"
)

type recordingProcessor struct {
	documentID string
	questions  []string
	requestID  string
	err        error
}

func (r *recordingProcessor) ProcessDocument(ctx context.Context, documentID string, questions []string) error {
	r.documentID = documentID
	r.questions = questions
	r.requestID = documents.RequestIDFromContext(ctx)
	return r.err
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var empty ErrEmptyBody
	if !errors.As(err, &empty) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestParseMessageInvalidJSON(t *testing.T) {
	_, meta, err := ParseMessage("{broken")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodyLen != len("{broken") || meta.BodySHA == "" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageMissingDocumentID(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{RequestID: "req-1", Version: queue.MessageVersion})
	_, _, err := ParseMessage(string(body))
	var missing ErrMissingDocumentID
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingDocumentID, got %v", err)
	}
	if missing.RequestID != "req-1" {
		t.Fatalf("request id = %q", missing.RequestID)
	}
}

func TestHandleMessageDispatchesToProcessor(t *testing.T) {
	proc := &recordingProcessor{}
	body, _ := queue.EncodeMessage(queue.Message{
		DocumentID: "doc-1",
		Questions:  []string{"q1", "q2"},
		RequestID:  "req-9",
		Version:    queue.MessageVersion,
	})

	if err := HandleMessage(context.Background(), proc, string(body)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if proc.documentID != "doc-1" {
		t.Fatalf("document id = %q", proc.documentID)
	}
	if len(proc.questions) != 2 {
		t.Fatalf("questions = %v", proc.questions)
	}
	if proc.requestID != "req-9" {
		t.Fatalf("request id not propagated: %q", proc.requestID)
	}
}

func TestHandleMessageWrapsProcessingError(t *testing.T) {
	cause := errors.New("pipeline broke")
	proc := &recordingProcessor{err: cause}
	body, _ := queue.EncodeMessage(queue.Message{DocumentID: "doc-2", Version: queue.MessageVersion})

	err := HandleMessage(context.Background(), proc, string(body))
	var perr ErrProcess
	if !errors.As(err, &perr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if perr.DocumentID != "doc-2" || !errors.Is(err, cause) {
		t.Fatalf("unexpected wrap: %+v", perr)
	}
}
