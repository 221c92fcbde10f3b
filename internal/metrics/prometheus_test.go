// SPDX-License-Identifier: MIT
package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lipsync/internal/analysis"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func readCounter(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func readGauge(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func TestObserverRecordsFrames(t *testing.T) {
	m := New(nil)

	m.FrameSubmitted(3)
	m.FrameSubmitted(4)
	m.FrameProcessed(time.Millisecond, analysis.Estimate{Vowel: analysis.VowelO, Amount: 0.6, Level: -12})
	m.FrameSkipped(fmt.Errorf("wrapped: %w", analysis.ErrInsufficientInput))
	m.FrameSkipped(fmt.Errorf("other"))

	if got := readCounter(t, m.FramesSubmitted); got != 2 {
		t.Errorf("submitted = %f, want 2", got)
	}
	if got := readGauge(t, m.QueueDepth); got != 4 {
		t.Errorf("queue depth = %f, want 4", got)
	}
	if got := readCounter(t, m.FramesAnalyzed); got != 1 {
		t.Errorf("analyzed = %f, want 1", got)
	}
	if got := readGauge(t, m.Level); got != -12 {
		t.Errorf("level = %f, want -12", got)
	}
	if got := readCounter(t, m.Vowels.WithLabelValues("O")); got != 1 {
		t.Errorf("vowel O = %f, want 1", got)
	}
	if got := readCounter(t, m.FramesSkipped.WithLabelValues("short_input")); got != 1 {
		t.Errorf("short_input = %f, want 1", got)
	}
	if got := readCounter(t, m.FramesSkipped.WithLabelValues("error")); got != 1 {
		t.Errorf("error = %f, want 1", got)
	}
}

func TestStopped(t *testing.T) {
	m := New(nil)
	if got := readGauge(t, m.WorkerUp); got != 1 {
		t.Fatalf("worker_up = %f, want 1", got)
	}

	m.Stopped(true)
	if got := readGauge(t, m.WorkerUp); got != 0 {
		t.Errorf("worker_up = %f, want 0", got)
	}
	if got := readCounter(t, m.WorkerFailures); got != 1 {
		t.Errorf("failures = %f, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(nil)
	m.FrameSubmitted(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"lipsync_frames_submitted_total 1", "lipsync_worker_up 1"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("response lacks %q", name)
		}
	}
}
