package conditions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conditionServer(t *testing.T, status *atomic.Int32, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body conditionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "front", body.CameraId)
		assert.Equal(t, "agent", body.AgentKey)
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIsValidUriResponse(t *testing.T) {
	var status, requests atomic.Int32
	status.Store(http.StatusOK)
	server := conditionServer(t, &status, &requests)
	camera := &models.CameraConfig{Id: "front", Name: "Front door"}
	now := time.Now()

	assert.True(t, IsValidUriResponse(&models.Config{Key: "agent"}, camera, now))
	assert.Equal(t, int32(0), requests.Load())

	config := &models.Config{Key: "agent", ConditionURI: server.URL}
	assert.True(t, IsValidUriResponse(config, camera, now))

	status.Store(http.StatusForbidden)
	assert.False(t, IsValidUriResponse(config, camera, now))
	assert.Equal(t, int32(2), requests.Load())

	assert.False(t, IsValidUriResponse(&models.Config{ConditionURI: "http://127.0.0.1:1"}, camera, now))
}

func TestURIConditionIsCached(t *testing.T) {
	var status, requests atomic.Int32
	status.Store(http.StatusOK)
	server := conditionServer(t, &status, &requests)
	condition := NewURICondition(&models.Config{Key: "agent", ConditionURI: server.URL}, &models.CameraConfig{Id: "front"})

	now := time.Now()
	require.True(t, condition.Valid(now))
	status.Store(http.StatusServiceUnavailable)
	assert.True(t, condition.Valid(now.Add(time.Second)))
	assert.Equal(t, int32(1), requests.Load())

	assert.False(t, condition.Valid(now.Add(ConditionValidity)))
	assert.Equal(t, int32(2), requests.Load())
}

func TestGateAsksConditionInsideTimeWindow(t *testing.T) {
	var status, requests atomic.Int32
	status.Store(http.StatusForbidden)
	server := conditionServer(t, &status, &requests)
	config := &models.Config{
		Key:          "agent",
		Time:         "true",
		Timetable:    officeHours(),
		Timezone:     "UTC",
		ConditionURI: server.URL,
	}
	gate := Gate(config, &models.CameraConfig{Id: "front"})

	assert.False(t, gate(time.Date(2024, 3, 6, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, int32(0), requests.Load())

	assert.False(t, gate(time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, int32(1), requests.Load())
}
