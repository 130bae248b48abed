package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/util"
)

const defaultRetryBaseDelay = 300 * time.Millisecond

// retryingLLM retries transient provider failures with exponential
// backoff. Permanent failures return immediately.
type retryingLLM struct {
	base        llm.Client
	maxAttempts int
	baseDelay   time.Duration
	documentID  string
	requestID   string
}

func newRetryingLLM(base llm.Client, maxAttempts int, baseDelay time.Duration, documentID, requestID string) llm.Client {
	if base == nil {
		return nil
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	return retryingLLM{
		base:        base,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		documentID:  documentID,
		requestID:   requestID,
	}
}

func (r retryingLLM) Summarize(ctx context.Context, text string) (string, error) {
	return r.do(ctx, func(ctx context.Context) (string, error) {
		return r.base.Summarize(ctx, text)
	})
}

func (r retryingLLM) Answer(ctx context.Context, summary, question string) (string, error) {
	return r.do(ctx, func(ctx context.Context) (string, error) {
		return r.base.Answer(ctx, summary, question)
	})
}

func (r retryingLLM) do(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		metrics.IncLLMCall()
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !llm.IsTransient(err) {
			break
		}
		if attempt == r.maxAttempts {
			lastErr = fmt.Errorf("llm call failed after %d attempts: %w", r.maxAttempts, err)
			break
		}
		metrics.IncLLMRetry()
		log.Printf("llm retry attempt=%d request_id=%s document_id=%s error=%s",
			attempt, r.requestID, r.documentID, util.SanitizeErrorMessage(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
	return "", lastErr
}

var _ llm.Client = retryingLLM{}
