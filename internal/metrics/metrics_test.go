package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBackendLabel(t *testing.T) {
	if got := BackendLabel(false); got != BackendPrimary {
		t.Errorf("BackendLabel(false) = %q; want %q", got, BackendPrimary)
	}
	if got := BackendLabel(true); got != BackendAlternative {
		t.Errorf("BackendLabel(true) = %q; want %q", got, BackendAlternative)
	}
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if backendRequestsTotal == nil || backendRetriesTotal == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveBackendCall(t *testing.T) {
	Init()
	okBefore := testutil.ToFloat64(backendRequestsTotal.WithLabelValues(BackendPrimary, "POST", "200"))
	errBefore := testutil.ToFloat64(backendRequestsTotal.WithLabelValues(BackendPrimary, "POST", "error"))

	ObserveBackendCall(BackendPrimary, "POST", 200, 10*time.Millisecond)
	ObserveBackendCall(BackendPrimary, "POST", 0, time.Millisecond)

	if val := testutil.ToFloat64(backendRequestsTotal.WithLabelValues(BackendPrimary, "POST", "200")); val != okBefore+1 {
		t.Errorf("expected 200 counter to be %f, got %f", okBefore+1, val)
	}
	if val := testutil.ToFloat64(backendRequestsTotal.WithLabelValues(BackendPrimary, "POST", "error")); val != errBefore+1 {
		t.Errorf("expected error counter to be %f, got %f", errBefore+1, val)
	}
}

func TestObserveCVSent(t *testing.T) {
	Init()
	before := testutil.ToFloat64(cvsSentTotal.WithLabelValues("cv", "failure"))

	ObserveCVSent("cv", errors.New("boom"))

	if val := testutil.ToFloat64(cvsSentTotal.WithLabelValues("cv", "failure")); val != before+1 {
		t.Errorf("expected failure counter to be %f, got %f", before+1, val)
	}
}

func TestObserveMirrorFailure(t *testing.T) {
	Init()
	before := testutil.ToFloat64(mirrorFailuresTotal.WithLabelValues("send_cv"))

	ObserveMirrorFailure("send_cv")

	if val := testutil.ToFloat64(mirrorFailuresTotal.WithLabelValues("send_cv")); val != before+1 {
		t.Errorf("expected mirror failure counter to be %f, got %f", before+1, val)
	}
}
