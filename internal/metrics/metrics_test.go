package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTransitionCountsByOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(transitions.WithLabelValues("accept", "ok"))
	errBefore := testutil.ToFloat64(transitions.WithLabelValues("accept", "error"))

	ObserveTransition("accept", nil)
	ObserveTransition("accept", errors.New("boom"))
	ObserveTransition("accept", nil)

	if got := testutil.ToFloat64(transitions.WithLabelValues("accept", "ok")) - okBefore; got != 2 {
		t.Errorf("expected 2 ok transitions, got %v", got)
	}
	if got := testutil.ToFloat64(transitions.WithLabelValues("accept", "error")) - errBefore; got != 1 {
		t.Errorf("expected 1 failed transition, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveSuggest(time.Millisecond, 3, nil)
	ObserveHTTP(http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"menjava_match_suggest_total", "menjava_http_requests_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
