package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.ComplaintFiled()
	r.Transition("assign officer", "ok")
	r.Transition("assign officer", "ok")
	r.Escalated("sweep")
	r.EscalationSkipped()
	r.SweepFinished(3, 1, 250*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ComplaintsFiled))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Transitions.WithLabelValues("assign officer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Escalations.WithLabelValues("sweep")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.EscalationSkips))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.SweepCandidates))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SweepItemFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SweepRuns.WithLabelValues("ok")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ComplaintFiled()
		r.Transition("x", "ok")
		r.Escalated("manual")
		r.EscalationSkipped()
		r.SweepFinished(1, 0, time.Second)
		r.SweepAborted()
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ComplaintFiled()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "grievance_complaints_filed_total 1")
}
