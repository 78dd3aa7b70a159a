package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCycle(t *testing.T) {
	m := New()
	m.ObserveCycle("front", 2, 15*time.Millisecond, false)
	m.ObserveCycle("front", 0, 10*time.Millisecond, true)
	m.MotionEvents.WithLabelValues("front").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesProcessed.WithLabelValues("front")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderErrors.WithLabelValues("front")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Boxes.WithLabelValues("front")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MotionEvents.WithLabelValues("front")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ActiveDetectors.Store(3)
	m.ObserveCycle("back", 1, time.Millisecond, false)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.True(t, strings.Contains(body, "agent_active_detectors 3"))
	assert.True(t, strings.Contains(body, `agent_frames_processed_total{camera="back"} 1`))
}
