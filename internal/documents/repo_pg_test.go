package documents

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateDefaultsStatusPending(t *testing.T) {
	repo, mock := newMockRepo(t)

	doc := Document{
		ID:         "doc-1",
		UserID:     "user-1",
		Filename:   "report.pdf",
		StorageKey: "uploads/doc-1.pdf",
		SizeBytes:  1024,
		MimeType:   "application/pdf",
		Questions:  []string{"What is covered?"},
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.UserID,
			doc.Filename,
			doc.StorageKey,
			doc.SizeBytes,
			doc.MimeType,
			StatusPending,
			sqlmock.AnyArg(), // questions jsonb
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansResultColumns(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "filename", "storage_key", "size_bytes", "mime_type", "status",
		"questions", "summary", "answers", "error_message", "processing_time_ms",
		"created_at", "updated_at",
	}).AddRow(
		"doc-1", "user-1", "report.pdf", "uploads/doc-1.pdf", int64(1024), "application/pdf", StatusCompleted,
		[]byte(`["What is covered?"]`), "A short summary.", []byte(`[{"question":"What is covered?","answer":"Storms."}]`), nil, int64(4200),
		now, now,
	)

	mock.ExpectQuery("SELECT").WithArgs("user-1", "doc-1").WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", doc.Status, StatusCompleted)
	}
	if doc.Summary == nil || *doc.Summary != "A short summary." {
		t.Fatalf("summary not scanned: %v", doc.Summary)
	}
	if len(doc.Answers) != 1 || doc.Answers[0].Answer != "Storms." {
		t.Fatalf("answers not scanned: %v", doc.Answers)
	}
	if doc.ProcessingTimeMs == nil || *doc.ProcessingTimeMs != 4200 {
		t.Fatalf("processing time not scanned: %v", doc.ProcessingTimeMs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), "user-1", "missing"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoClaimProcessing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusProcessing, "doc-1", StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimProcessing(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ClaimProcessing: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim to succeed")
	}

	// Reclaiming a document stuck in processing succeeds too.
	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusProcessing, "doc-1", StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err = repo.ClaimProcessing(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ClaimProcessing reclaim: %v", err)
	}
	if !claimed {
		t.Fatal("expected reclaim to succeed")
	}

	// Terminal documents cannot be claimed.
	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusProcessing, "doc-1", StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err = repo.ClaimProcessing(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ClaimProcessing terminal: %v", err)
	}
	if claimed {
		t.Fatal("expected claim on terminal document to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteProcessing(t *testing.T) {
	repo, mock := newMockRepo(t)

	answers := []QA{{Question: "Q1", Answer: "A1"}}

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusCompleted, "summary", sqlmock.AnyArg(), int64(1500), "doc-1", StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CompleteProcessing(context.Background(), "doc-1", "summary", answers, 1500); err != nil {
		t.Fatalf("CompleteProcessing: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
