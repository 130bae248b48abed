// Package pipeline turns an uploaded document into a summary and
// ordered per-question answers: claim the job, check the result cache,
// extract text, summarize (map-reduce over chunks when the text is
// large), answer each question against the summary, and persist the
// terminal status.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"docqa-backend/internal/cache"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/extract"
	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/shared/util"
)

// Config tunes pipeline behavior.
type Config struct {
	ChunkSize         int
	ChunkOverlap      int
	CacheTTL          time.Duration
	Budget            time.Duration
	LLMMaxAttempts    int
	LLMRetryBaseDelay time.Duration
	// MapConcurrency bounds concurrent chunk summaries during the map
	// phase.
	MapConcurrency int
}

const (
	defaultBudget         = 10 * time.Minute
	defaultCacheTTL       = 24 * time.Hour
	defaultMapConcurrency = 4
)

// Processor runs the document pipeline.
type Processor struct {
	Repo  documents.Repo
	Store object.ObjectStore
	Cache cache.Cache
	LLM   llm.Client
	Cfg   Config
}

// cachedResult is the payload stored in the result cache.
type cachedResult struct {
	Summary string         `json:"summary"`
	Answers []documents.QA `json:"answers"`
}

// ProcessDocument drives one document from pending to a terminal
// status. It is safe to call more than once for the same document:
// duplicate deliveries lose the claim and return without side effects.
func (p *Processor) ProcessDocument(ctx context.Context, documentID string, questions []string) (err error) {
	requestID := documents.RequestIDFromContext(ctx)

	doc, err := p.Repo.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			telemetry.Warn("pipeline.document_missing", map[string]any{
				"document_id": documentID,
				"request_id":  requestID,
			})
			metrics.IncJobSkipped()
			return nil
		}
		return fmt.Errorf("document lookup id=%s: %w", documentID, err)
	}
	if doc.Status == documents.StatusCompleted || doc.Status == documents.StatusFailed {
		metrics.IncJobSkipped()
		telemetry.Info("pipeline.skip_terminal", map[string]any{
			"document_id": documentID,
			"status":      doc.Status,
			"request_id":  requestID,
		})
		return nil
	}

	claimed, err := p.Repo.ClaimProcessing(ctx, documentID)
	if err != nil {
		return fmt.Errorf("claim document id=%s: %w", documentID, err)
	}
	if !claimed {
		// A concurrent delivery finished the document between the
		// status read and the claim.
		metrics.IncJobSkipped()
		telemetry.Info("pipeline.skip_claimed", map[string]any{
			"document_id": documentID,
			"request_id":  requestID,
		})
		return nil
	}

	metrics.IncJobStarted()
	telemetry.Info("document.status", map[string]any{
		"document_id":       documentID,
		"user_id":           doc.UserID,
		"status":            documents.StatusProcessing,
		"status_transition": doc.Status + "->" + documents.StatusProcessing,
		"request_id":        requestID,
	})

	budget := p.Cfg.Budget
	if budget <= 0 {
		budget = defaultBudget
	}
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if len(questions) == 0 {
		questions = doc.Questions
	}
	if len(questions) == 0 {
		questions = documents.DefaultQuestions
	}

	startedAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("panic: %v", r)
			err = p.fail(ctx, doc, cause, requestID)
		}
	}()

	summary, answers, fromCache, runErr := p.run(runCtx, doc, questions, requestID)
	if runErr != nil {
		return p.fail(ctx, doc, runErr, requestID)
	}

	elapsedMs := time.Since(startedAt).Milliseconds()
	if fromCache {
		elapsedMs = 0
	}
	if err := p.Repo.CompleteProcessing(ctx, documentID, summary, answers, elapsedMs); err != nil {
		// Storage trouble, not a document problem. Leave the status
		// alone: the redelivery reclaims the job and the retry is
		// served from the cache written above.
		telemetry.Error("pipeline.persist_result_failed", map[string]any{
			"document_id": documentID,
			"err":         util.SanitizeErrorMessage(err),
			"request_id":  requestID,
		})
		return fmt.Errorf("persist result document=%s: %w", documentID, err)
	}

	metrics.IncJobCompleted()
	metrics.ObserveJobDurationMs(float64(time.Since(startedAt).Milliseconds()))
	telemetry.Info("document.status", map[string]any{
		"document_id":       documentID,
		"user_id":           doc.UserID,
		"status":            documents.StatusCompleted,
		"status_transition": "processing->completed",
		"from_cache":        fromCache,
		"elapsed_ms":        elapsedMs,
		"request_id":        requestID,
	})
	return nil
}

func (p *Processor) run(ctx context.Context, doc documents.Document, questions []string, requestID string) (string, []documents.QA, bool, error) {
	content, err := p.loadBlob(ctx, doc.StorageKey)
	if err != nil {
		return "", nil, false, err
	}

	fingerprint := Fingerprint(content, questions)
	if cached, ok := p.cacheGet(ctx, fingerprint, doc.ID, requestID); ok {
		return cached.Summary, cached.Answers, true, nil
	}

	text, err := extract.FromBytes(ctx, content, doc.MimeType, doc.Filename)
	if err != nil {
		return "", nil, false, err
	}

	client := newRetryingLLM(p.LLM, p.Cfg.LLMMaxAttempts, p.Cfg.LLMRetryBaseDelay, doc.ID, requestID)
	if client == nil {
		return "", nil, false, errors.New("llm client not configured")
	}

	summary, err := p.summarize(ctx, client, text)
	if err != nil {
		return "", nil, false, fmt.Errorf("summarize: %w", err)
	}

	answers := make([]documents.QA, 0, len(questions))
	for _, question := range questions {
		answer, err := client.Answer(ctx, summary, question)
		if err != nil {
			return "", nil, false, fmt.Errorf("answer %q: %w", question, err)
		}
		answers = append(answers, documents.QA{Question: question, Answer: answer})
	}

	p.cacheSet(ctx, fingerprint, cachedResult{Summary: summary, Answers: answers}, doc.ID, requestID)
	return summary, answers, false, nil
}

// summarize produces one summary. Text that fits a single chunk goes
// straight to the model; larger text is summarized chunk by chunk and
// the partial summaries are combined in a final pass.
func (p *Processor) summarize(ctx context.Context, client llm.Client, text string) (string, error) {
	chunks := Chunk(text, p.Cfg.ChunkSize, p.Cfg.ChunkOverlap)
	if len(chunks) == 1 {
		return client.Summarize(ctx, chunks[0])
	}

	limit := p.Cfg.MapConcurrency
	if limit <= 0 {
		limit = defaultMapConcurrency
	}

	partials := make([]string, len(chunks))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, chunk := range chunks {
		group.Go(func() error {
			partial, err := client.Summarize(groupCtx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			partials[i] = partial
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}

	return client.Summarize(ctx, strings.Join(partials, "\n\n"))
}

func (p *Processor) loadBlob(ctx context.Context, storageKey string) ([]byte, error) {
	body, err := p.Store.Open(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("open blob key=%s: %w", storageKey, err)
	}
	defer body.Close()
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read blob key=%s: %w", storageKey, err)
	}
	return content, nil
}

// cacheGet reads the result cache. Cache failures degrade to a miss.
func (p *Processor) cacheGet(ctx context.Context, key, documentID, requestID string) (cachedResult, bool) {
	if p.Cache == nil {
		return cachedResult{}, false
	}
	payload, ok, err := p.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("pipeline.cache_get_failed", map[string]any{
			"document_id": documentID,
			"err":         util.SanitizeErrorMessage(err),
			"request_id":  requestID,
		})
		return cachedResult{}, false
	}
	if !ok {
		metrics.IncCacheMiss()
		return cachedResult{}, false
	}
	var result cachedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		telemetry.Warn("pipeline.cache_decode_failed", map[string]any{
			"document_id": documentID,
			"err":         util.SanitizeErrorMessage(err),
			"request_id":  requestID,
		})
		return cachedResult{}, false
	}
	metrics.IncCacheHit()
	return result, true
}

// cacheSet writes the result cache. Failures are logged, never fatal.
func (p *Processor) cacheSet(ctx context.Context, key string, result cachedResult, documentID, requestID string) {
	if p.Cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := p.Cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if err := p.Cache.Set(ctx, key, payload, ttl); err != nil {
		telemetry.Warn("pipeline.cache_set_failed", map[string]any{
			"document_id": documentID,
			"err":         util.SanitizeErrorMessage(err),
			"request_id":  requestID,
		})
	}
}

// fail persists the failure on the document and returns the typed
// error the caller should propagate.
func (p *Processor) fail(ctx context.Context, doc documents.Document, cause error, requestID string) error {
	code := classifyFailure(cause)
	message := fmt.Sprintf("%s: %s", code, util.SanitizeErrorMessage(cause))

	// The budget context may already be dead; the status write must
	// still land.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.Repo.FailProcessing(failCtx, doc.ID, message); err != nil {
		telemetry.Error("pipeline.fail_status_write_failed", map[string]any{
			"document_id": doc.ID,
			"err":         util.SanitizeErrorMessage(err),
			"request_id":  requestID,
		})
	}

	metrics.IncJobFailed()
	telemetry.Error("document.status", map[string]any{
		"document_id":       doc.ID,
		"user_id":           doc.UserID,
		"status":            documents.StatusFailed,
		"status_transition": "processing->failed",
		"failure_code":      code,
		"err":               util.SanitizeErrorMessage(cause),
		"request_id":        requestID,
	})
	return &DocumentFailedError{DocumentID: doc.ID, Code: code, Err: cause}
}
