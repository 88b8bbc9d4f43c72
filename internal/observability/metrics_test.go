package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountTransitions(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordTransition("claim", nil)
	m.RecordTransition("claim", nil)
	m.RecordTransition("claim", errors.New("taken"))

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("claim", "ok")); got != 2 {
		t.Fatalf("expected 2 successful claims, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("claim", "rejected")); got != 1 {
		t.Fatalf("expected 1 rejected claim, got %v", got)
	}
}

func TestMetricsRequestsAndFailures(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/shifts/:id", "GET", 200, 5*time.Millisecond)
	m.RecordError("/shifts/:id", "GET", "NOT_FOUND")
	m.RecordNotificationFailure("publish")
	m.RecordNotificationsCreated(3)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/shifts/:id", "GET", "200")); got != 1 {
		t.Fatalf("expected one request, got %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("/shifts/:id", "GET", "NOT_FOUND")); got != 1 {
		t.Fatalf("expected one error, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsFailed.WithLabelValues("publish")); got != 1 {
		t.Fatalf("expected one publish failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsCreated); got != 3 {
		t.Fatalf("expected 3 created, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "CONFLICT")
	m.RecordTransition("lock", nil)
	m.RecordNotificationFailure("persist")
	m.RecordNotificationsCreated(1)
}
