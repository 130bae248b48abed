package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document // documentID -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) Get(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	var docs []Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

func (r *MemoryRepo) ClaimProcessing(ctx context.Context, documentID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return false, ErrNotFound
	}
	if doc.Status != StatusPending && doc.Status != StatusProcessing {
		return false, nil
	}
	doc.Status = StatusProcessing
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return true, nil
}

func (r *MemoryRepo) CompleteProcessing(ctx context.Context, documentID, summary string, answers []QA, processingTimeMs int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != StatusProcessing {
		return nil
	}
	doc.Status = StatusCompleted
	doc.Summary = &summary
	doc.Answers = answers
	doc.ProcessingTimeMs = &processingTimeMs
	doc.ErrorMessage = nil
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) FailProcessing(ctx context.Context, documentID, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != StatusProcessing {
		return nil
	}
	doc.Status = StatusFailed
	doc.ErrorMessage = &errorMessage
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
