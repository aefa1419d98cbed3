package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ingestStartedTotal       atomic.Uint64
	ingestCompletedTotal     atomic.Uint64
	ingestFailedTotal        atomic.Uint64
	extractionFailedTotal    atomic.Uint64
	matchRequestsTotal       atomic.Uint64
	matchCreatedTotal        atomic.Uint64
	matchExistingTotal       atomic.Uint64
	matchFailedTotal         atomic.Uint64
	jobsReceivedTotal        atomic.Uint64
	jobsCompletedTotal       atomic.Uint64
	jobsFailedTotal          atomic.Uint64
	jobsDeletedUnrecoverable atomic.Uint64
	httpPanicsTotal          atomic.Uint64

	ingestDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	matchDuration  = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

func IncIngestStarted()   { ingestStartedTotal.Add(1) }
func IncIngestCompleted() { ingestCompletedTotal.Add(1) }
func IncIngestFailed()    { ingestFailedTotal.Add(1) }

// IncExtractionFailed counts structured extractions that degraded to raw text only.
func IncExtractionFailed() { extractionFailedTotal.Add(1) }

func IncMatchRequests() { matchRequestsTotal.Add(1) }
func IncMatchCreated()  { matchCreatedTotal.Add(1) }
func IncMatchExisting() { matchExistingTotal.Add(1) }
func IncMatchFailed()   { matchFailedTotal.Add(1) }

func IncJobsReceived()  { jobsReceivedTotal.Add(1) }
func IncJobsCompleted() { jobsCompletedTotal.Add(1) }
func IncJobsFailed()    { jobsFailedTotal.Add(1) }

// IncJobsDeletedUnrecoverable counts queue messages dropped without processing.
func IncJobsDeletedUnrecoverable() { jobsDeletedUnrecoverable.Add(1) }

func IncHTTPPanic() { httpPanicsTotal.Add(1) }

// ObserveIngestDurationMs records a processDocument duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	ingestDuration.Observe(clampPositive(value))
}

// ObserveMatchDurationMs records a matchCandidate duration in milliseconds.
func ObserveMatchDurationMs(value float64) {
	matchDuration.Observe(clampPositive(value))
}

func clampPositive(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
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
	writeCounter(&buf, "ingest_started_total", "Total document ingestions started", ingestStartedTotal.Load())
	writeCounter(&buf, "ingest_completed_total", "Total document ingestions completed", ingestCompletedTotal.Load())
	writeCounter(&buf, "ingest_failed_total", "Total document ingestions failed", ingestFailedTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Total structured extractions that failed after ingestion", extractionFailedTotal.Load())
	writeCounter(&buf, "match_requests_total", "Total match requests", matchRequestsTotal.Load())
	writeCounter(&buf, "match_created_total", "Total ratings created", matchCreatedTotal.Load())
	writeCounter(&buf, "match_existing_total", "Total match requests answered with an existing rating", matchExistingTotal.Load())
	writeCounter(&buf, "match_failed_total", "Total match requests failed", matchFailedTotal.Load())
	writeCounter(&buf, "worker_jobs_received_total", "Total queue jobs received", jobsReceivedTotal.Load())
	writeCounter(&buf, "worker_jobs_completed_total", "Total queue jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "worker_jobs_failed_total", "Total queue jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "worker_jobs_deleted_unrecoverable_total", "Total queue jobs dropped as unrecoverable", jobsDeletedUnrecoverable.Load())
	writeCounter(&buf, "http_panics_total", "Total handler panics recovered", httpPanicsTotal.Load())
	writeHistogram(&buf, "ingest_duration_ms", "Document ingestion duration in milliseconds", ingestDuration.Snapshot())
	writeHistogram(&buf, "match_duration_ms", "Candidate matching duration in milliseconds", matchDuration.Snapshot())
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
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
