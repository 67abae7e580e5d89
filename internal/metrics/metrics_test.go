package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	r.Cycle()
	r.Cycle()
	r.Upload(1024)
	r.UploadError()
	r.CycleError()

	if got := testutil.ToFloat64(r.cycles); got != 2 {
		t.Errorf("cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.uploads); got != 1 {
		t.Errorf("uploads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.uploadedBytes); got != 1024 {
		t.Errorf("uploadedBytes = %v, want 1024", got)
	}
	if got := testutil.ToFloat64(r.uploadErrors); got != 1 {
		t.Errorf("uploadErrors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.cycleErrors); got != 1 {
		t.Errorf("cycleErrors = %v, want 1", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Cycle()
	r.CycleError()
	r.Upload(1)
	r.UploadError()
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("first NewRecorder: %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("second registration on the same registry should fail")
	}
}
