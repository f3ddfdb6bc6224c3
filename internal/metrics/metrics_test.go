package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/vnode"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, us := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(us) * time.Microsecond)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinUs != 100 || snap.MaxUs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
	if snap.AvgUs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgUs)
	}
	if snap.P50Us != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Us)
	}
	if snap.P95Us != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Us)
	}
	if snap.P99Us != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Us)
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLatencyStats(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stats.now = func() time.Time { return now }

	stats.Record(100 * time.Microsecond)
	now = now.Add(2 * time.Minute)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200 * time.Microsecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinUs != 200 || snap.MaxUs != 200 {
		t.Fatalf("expected one fresh sample of 200, got %+v", snap)
	}
}

func TestLatencyStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(-10 * time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinUs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestRecorderObservesPasses(t *testing.T) {
	rec := NewRecorder(time.Hour)
	tr := skeleton.New(skeleton.WithObserver(rec))

	shared := vnode.Element("span", nil, vnode.Text("x"))
	tree := vnode.Element("div", nil,
		vnode.Element("img", nil),
		vnode.Text("hello"),
		shared,
		shared,
		vnode.Opaque("Badge", nil),
	)
	tr.Transform(tree)

	if got := testutil.ToFloat64(rec.passes); got != 1 {
		t.Errorf("expected 1 pass, got %v", got)
	}
	if got := testutil.ToFloat64(rec.nodes.WithLabelValues("image")); got != 1 {
		t.Errorf("expected 1 image, got %v", got)
	}
	if got := testutil.ToFloat64(rec.nodes.WithLabelValues("opaque")); got != 1 {
		t.Errorf("expected 1 opaque, got %v", got)
	}
	if got := testutil.ToFloat64(rec.cacheHits); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
	if snap := rec.Latency().Snapshot(); snap.Count != 1 {
		t.Errorf("expected one latency sample, got %d", snap.Count)
	}
}

func TestRecorderCountsFallbacks(t *testing.T) {
	rec := NewRecorder(time.Hour)
	tr := skeleton.New(skeleton.WithObserver(rec))

	tr.Transform(vnode.Element("bad tag", nil, vnode.Element("div", nil)))

	if got := testutil.ToFloat64(rec.fallbacks.WithLabelValues("rebuild")); got != 1 {
		t.Errorf("expected 1 rebuild fallback, got %v", got)
	}
}

func TestRecorderHandler(t *testing.T) {
	rec := NewRecorder(time.Hour)
	rec.JobFinished("completed")
	rec.ObservePass(skeleton.Stats{Text: 2}, time.Millisecond)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`skelgen_jobs_total{status="completed"} 1`,
		`skelgen_nodes_total{kind="text"} 2`,
		"skelgen_pass_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
