// Package metrics exports uploader telemetry to Prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts polling cycles and transfer outcomes. A nil Recorder is
// valid and records nothing, so callers never need to branch on whether
// metrics are enabled.
type Recorder struct {
	cycles        prometheus.Counter
	cycleErrors   prometheus.Counter
	uploads       prometheus.Counter
	uploadErrors  prometheus.Counter
	uploadedBytes prometheus.Counter
}

// NewRecorder registers the uploader metrics on reg (the default registerer
// when nil).
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3uploader",
			Name:      "cycles_total",
			Help:      "Completed polling cycles.",
		}),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3uploader",
			Name:      "cycle_errors_total",
			Help:      "Cycles aborted by list or credential failures.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3uploader",
			Name:      "uploads_total",
			Help:      "Objects confirmed in storage and removed from the queue.",
		}),
		uploadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3uploader",
			Name:      "upload_errors_total",
			Help:      "Per-item transfer failures (row retained for retry).",
		}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3uploader",
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully uploaded.",
		}),
	}
	for _, c := range []prometheus.Collector{r.cycles, r.cycleErrors, r.uploads, r.uploadErrors, r.uploadedBytes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register uploader metric: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) Cycle() {
	if r == nil {
		return
	}
	r.cycles.Inc()
}

func (r *Recorder) CycleError() {
	if r == nil {
		return
	}
	r.cycleErrors.Inc()
}

func (r *Recorder) Upload(sizeBytes int64) {
	if r == nil {
		return
	}
	r.uploads.Inc()
	r.uploadedBytes.Add(float64(sizeBytes))
}

func (r *Recorder) UploadError() {
	if r == nil {
		return
	}
	r.uploadErrors.Inc()
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
