package metric

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistersMetrics(t *testing.T) {
	r := New()

	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
	r.CommandsTotal.WithLabelValues("ping").Inc()
	r.RequestsDropped.WithLabelValues("argument").Inc()
	r.SweepPasses.Inc()
	r.KeysExpired.Add(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"mistkv_connections_total 1",
		"mistkv_connections_active 1",
		`mistkv_commands_total{verb="ping"} 1`,
		`mistkv_requests_dropped_total{kind="argument"} 1`,
		"mistkv_sweep_passes_total 1",
		"mistkv_keys_expired_total 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStoreCollector(t *testing.T) {
	r := New()
	size := 7
	if err := r.Register(NewStoreCollector(func() int { return size })); err != nil {
		t.Fatalf("register collector: %v", err)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "mistkv_store_keys 7") {
		t.Error("metrics output missing mistkv_store_keys 7")
	}

	// The collector reads the size live at scrape time.
	size = 2
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "mistkv_store_keys 2") {
		t.Error("metrics output missing mistkv_store_keys 2")
	}
}
