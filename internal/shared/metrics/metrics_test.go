package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCountersAndHistograms(t *testing.T) {
	IncMatchRequests()
	IncMatchCreated()
	ObserveMatchDurationMs(300)
	ObserveIngestDurationMs(-5)

	out := Render()
	for _, want := range []string{
		"# TYPE match_requests_total counter",
		"# TYPE match_duration_ms histogram",
		`match_duration_ms_bucket{le="500"}`,
		`ingest_duration_ms_bucket{le="+Inf"}`,
		"worker_jobs_deleted_unrecoverable_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q", want)
		}
	}
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %v", snap.counts)
	}
	if snap.sum != 555 {
		t.Fatalf("unexpected sum: %v", snap.sum)
	}
}
