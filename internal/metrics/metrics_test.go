package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	switch {
	case pb.Counter != nil:
		return pb.GetCounter().GetValue()
	case pb.Gauge != nil:
		return pb.GetGauge().GetValue()
	case pb.Histogram != nil:
		return float64(pb.GetHistogram().GetSampleCount())
	}
	t.Fatal("unsupported metric type")
	return 0
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRebuild(3)
	m.RecordNodeUpdate("self", 3)
	m.RecordFlush(time.Millisecond)
	m.RecordNotification("edge-added")
	m.RecordQuery("ok", 1, time.Millisecond)
	m.RecordParseCacheHit()
}

func TestRecord(t *testing.T) {
	m := New()
	m.RecordRebuild(5)
	m.RecordNodeUpdate("subtree", 6)
	m.RecordNodeUpdate("subtree", 6)
	m.RecordFlush(2 * time.Millisecond)
	m.RecordQuery("ok", 4, time.Millisecond)
	m.RecordQuery("empty", 0, time.Millisecond)
	m.RecordParseCacheHit()

	tests := []struct {
		name   string
		metric prometheus.Metric
		want   float64
	}{
		{"rebuilds", m.RebuildsTotal, 1},
		{"documents", m.DocumentsTotal, 6},
		{"subtree updates", m.NodeUpdatesTotal.WithLabelValues("subtree"), 2},
		{"flushes", m.FlushesTotal, 1},
		{"flush samples", m.FlushDuration, 1},
		{"ok queries", m.QueriesTotal.WithLabelValues("ok"), 1},
		{"empty queries", m.QueriesTotal.WithLabelValues("empty"), 1},
		{"matches", m.MatchesTotal, 4},
		{"cache hits", m.ParseCacheHits, 1},
	}
	for _, tt := range tests {
		if got := value(t, tt.metric); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordRebuild(1)
	if got := value(t, b.RebuildsTotal); got != 0 {
		t.Errorf("second registry rebuilds = %v, want 0", got)
	}
	families, err := a.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather returned no metric families")
	}
}
