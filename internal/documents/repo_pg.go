package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. Questions and answers are
// stored as jsonb so their order survives the round trip.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, user_id, filename, storage_key, size_bytes, mime_type, status,
questions, summary, answers, error_message, processing_time_ms,
created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    filename,
    storage_key,
    size_bytes,
    mime_type,
    status,
    questions,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	status := doc.Status
	if status == "" {
		status = StatusPending
	}
	questions, err := json.Marshal(doc.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.StorageKey,
		doc.SizeBytes,
		doc.MimeType,
		status,
		questions,
		doc.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, userID, documentID))
}

func (r *PGRepo) Get(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ClaimProcessing takes ownership of a pending document, or reclaims a
// processing one left behind by a crashed worker. The queue visibility
// timeout outlasts the processing budget, so a redelivered processing
// document cannot still be running elsewhere.
func (r *PGRepo) ClaimProcessing(ctx context.Context, documentID string) (bool, error) {
	const query = `
UPDATE documents
SET status = $1, updated_at = now()
WHERE id = $2 AND status IN ($3, $4)`
	res, err := r.DB.ExecContext(ctx, query, StatusProcessing, documentID, StatusPending, StatusProcessing)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PGRepo) CompleteProcessing(ctx context.Context, documentID, summary string, answers []QA, processingTimeMs int64) error {
	const query = `
UPDATE documents
SET status = $1,
    summary = $2,
    answers = $3,
    processing_time_ms = $4,
    error_message = NULL,
    updated_at = now()
WHERE id = $5 AND status = $6`
	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, StatusCompleted, summary, encoded, processingTimeMs, documentID, StatusProcessing)
	return err
}

func (r *PGRepo) FailProcessing(ctx context.Context, documentID, errorMessage string) error {
	const query = `
UPDATE documents
SET status = $1, error_message = $2, updated_at = now()
WHERE id = $3 AND status = $4`
	_, err := r.DB.ExecContext(ctx, query, StatusFailed, errorMessage, documentID, StatusProcessing)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var questionsRaw []byte
	var summary sql.NullString
	var answersRaw []byte
	var errorMessage sql.NullString
	var processingTime sql.NullInt64
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.StorageKey,
		&doc.SizeBytes,
		&doc.MimeType,
		&doc.Status,
		&questionsRaw,
		&summary,
		&answersRaw,
		&errorMessage,
		&processingTime,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if len(questionsRaw) > 0 {
		if err := json.Unmarshal(questionsRaw, &doc.Questions); err != nil {
			return Document{}, fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	if summary.Valid {
		doc.Summary = &summary.String
	}
	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &doc.Answers); err != nil {
			return Document{}, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	if errorMessage.Valid {
		doc.ErrorMessage = &errorMessage.String
	}
	if processingTime.Valid {
		doc.ProcessingTimeMs = &processingTime.Int64
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
