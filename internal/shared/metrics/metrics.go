package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	jobsReceivedTotal  atomic.Uint64
	jobsStartedTotal   atomic.Uint64
	jobsCompletedTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	jobsSkippedTotal   atomic.Uint64
	cacheHitsTotal     atomic.Uint64
	cacheMissesTotal   atomic.Uint64
	llmCallsTotal      atomic.Uint64
	llmRetriesTotal    atomic.Uint64

	jobsDeletedUnrecoverableTotal atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000})
)

// IncJobReceived increments the counter of queue messages received.
func IncJobReceived() { jobsReceivedTotal.Add(1) }

// IncJobStarted increments the started counter.
func IncJobStarted() { jobsStartedTotal.Add(1) }

// IncJobCompleted increments the completed counter.
func IncJobCompleted() { jobsCompletedTotal.Add(1) }

// IncJobFailed increments the failed counter.
func IncJobFailed() { jobsFailedTotal.Add(1) }

// IncJobSkipped increments the counter of jobs dropped as already terminal.
func IncJobSkipped() { jobsSkippedTotal.Add(1) }

// IncJobDeletedUnrecoverable increments the counter of malformed messages
// deleted without processing.
func IncJobDeletedUnrecoverable() { jobsDeletedUnrecoverableTotal.Add(1) }

// IncCacheHit increments the cache hit counter.
func IncCacheHit() { cacheHitsTotal.Add(1) }

// IncCacheMiss increments the cache miss counter.
func IncCacheMiss() { cacheMissesTotal.Add(1) }

// IncLLMCall increments the LLM invocation counter.
func IncLLMCall() { llmCallsTotal.Add(1) }

// IncLLMRetry increments the LLM retry counter.
func IncLLMRetry() { llmRetriesTotal.Add(1) }

// ObserveJobDurationMs records a processing duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "processing_jobs_received_total", "Total queue messages received", jobsReceivedTotal.Load())
	writeCounter(&buf, "processing_jobs_started_total", "Total processing jobs started", jobsStartedTotal.Load())
	writeCounter(&buf, "processing_jobs_completed_total", "Total processing jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "processing_jobs_failed_total", "Total processing jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "processing_jobs_skipped_total", "Total duplicate deliveries skipped", jobsSkippedTotal.Load())
	writeCounter(&buf, "processing_jobs_deleted_unrecoverable_total", "Total malformed messages deleted", jobsDeletedUnrecoverableTotal.Load())
	writeCounter(&buf, "result_cache_hits_total", "Total result cache hits", cacheHitsTotal.Load())
	writeCounter(&buf, "result_cache_misses_total", "Total result cache misses", cacheMissesTotal.Load())
	writeCounter(&buf, "llm_calls_total", "Total LLM invocations", llmCallsTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Total LLM retries", llmRetriesTotal.Load())
	writeHistogram(&buf, "processing_duration_ms", "Processing duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
