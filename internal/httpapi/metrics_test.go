package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"inferd/internal/dispatch"
	"inferd/pkg/types"
)

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed via the
// Prometheus /metrics handler.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	MetricsMiddleware(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	body := mrr.Body.Bytes()
	if !bytes.Contains(body, []byte("inferd_http_requests_total")) {
		previewLen := len(body)
		if previewLen > 200 {
			previewLen = 200
		}
		t.Fatalf("expected to find inferd_http_requests_total in metrics; got: %q", string(body[:previewLen]))
	}
}

func TestIncrementBackpressure_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(backpressureTotal.WithLabelValues("queue_full"))
	IncrementBackpressure("queue_full")
	IncrementBackpressure("queue_full")
	got := testutil.ToFloat64(backpressureTotal.WithLabelValues("queue_full"))
	if got < baseline+2 {
		t.Fatalf("expected backpressure counter >= %v, got %v", baseline+2, got)
	}

	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	IncrementBackpressure("")
	after := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	if after < before+1 {
		t.Fatalf("expected unspecified reason to increment: before=%v after=%v", before, after)
	}
}

func TestMetricsPublisher_CountsOutcomes(t *testing.T) {
	readyBefore := testutil.ToFloat64(initsTotal.WithLabelValues("ready"))
	okBefore := testutil.ToFloat64(infersTotal.WithLabelValues("ok"))
	rejectedBefore := testutil.ToFloat64(infersTotal.WithLabelValues("rejected"))

	p := NewMetricsPublisher(nil)
	p.Publish(dispatch.Event{Name: dispatch.EventInitReady, Model: "m"})
	p.Publish(dispatch.Event{Name: dispatch.EventInferOK, Model: "m", OpID: "op-1"})
	p.Publish(dispatch.Event{Name: dispatch.EventInferRejected, Model: "m"})
	// Unmapped names must not panic or count.
	p.Publish(dispatch.Event{Name: dispatch.EventInferSubmit, Model: "m"})

	if got := testutil.ToFloat64(initsTotal.WithLabelValues("ready")); got != readyBefore+1 {
		t.Fatalf("initializations ready = %v, want %v", got, readyBefore+1)
	}
	if got := testutil.ToFloat64(infersTotal.WithLabelValues("ok")); got != okBefore+1 {
		t.Fatalf("infer ok = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(infersTotal.WithLabelValues("rejected")); got != rejectedBefore+1 {
		t.Fatalf("infer rejected = %v, want %v", got, rejectedBefore+1)
	}
}

func TestMetricsPublisher_ForwardsToNext(t *testing.T) {
	mem := dispatch.NewMemoryPublisher()
	p := NewMetricsPublisher(mem)
	p.Publish(dispatch.Event{Name: dispatch.EventInferOK, Model: "m", OpID: "op-1"})
	p.Publish(dispatch.Event{Name: dispatch.EventReset, Model: "m"})
	if len(mem.Events()) != 2 {
		t.Fatalf("forwarded %d events, want 2", len(mem.Events()))
	}
	if mem.Count(dispatch.EventReset) != 1 {
		t.Fatalf("reset not forwarded")
	}
}

func TestUpdateStatusGauges(t *testing.T) {
	UpdateStatusGauges(types.StatusResponse{
		Counts: map[types.ModelState]int{
			types.StateReady:        2,
			types.StateInitializing: 1,
		},
		Pool: types.PoolStatus{QueueLen: 7},
	})
	if got := testutil.ToFloat64(modelsByState.WithLabelValues("ready")); got != 2 {
		t.Fatalf("ready gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(modelsByState.WithLabelValues("failed")); got != 0 {
		t.Fatalf("failed gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(poolQueueLen); got != 7 {
		t.Fatalf("queue len gauge = %v, want 7", got)
	}
}
