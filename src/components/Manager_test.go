package components

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/capture"
	"github.com/cjsmocjsmo/streamserverclient/src/cloud"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	mutex   sync.Mutex
	sources map[string]*fakeSource
	next    func(n int) *models.Frame
}

func newFakeFactory(next func(n int) *models.Frame) *fakeFactory {
	return &fakeFactory{sources: map[string]*fakeSource{}, next: next}
}

func (f *fakeFactory) New(camera *models.CameraConfig, settings models.MotionSettings) capture.FrameSource {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if source, ok := f.sources[camera.Id]; ok {
		return source
	}
	source := &fakeSource{next: f.next}
	if camera.Id == "broken" {
		source.openErr = errors.New("no route to host")
	}
	f.sources[camera.Id] = source
	return source
}

func (f *fakeFactory) source(id string) *fakeSource {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.sources[id]
}

func testConfiguration() *models.Configuration {
	settings := testSettings()
	front := testCamera("front")
	front.AutoStart = "true"
	front.FallbackURL = "rtsp://127.0.0.1:8555/front"
	return &models.Configuration{
		Config: models.Config{
			Key:    "agent",
			Motion: settings,
			Cameras: map[string]*models.CameraConfig{
				"front":   front,
				"back":    {URL: "rtsp://127.0.0.1:8554/back", Description: "Back yard"},
				"broken":  {URL: "rtsp://127.0.0.1:8554/broken", AutoStart: "true"},
				"missing": {Name: "No url"},
			},
		},
	}
}

func TestNewManager(t *testing.T) {
	manager, problems := NewManager(context.Background(), testConfiguration(), newFakeFactory(scenarioFrame).New)
	require.Len(t, problems, 1)

	cameras := manager.Cameras()
	require.Len(t, cameras, 3)
	assert.Equal(t, "back", cameras[0].Id)
	assert.Equal(t, "back", cameras[0].Name)
	assert.Equal(t, "Back yard", cameras[0].Description)
	assert.Equal(t, "broken", cameras[1].Id)
	assert.Equal(t, "front", cameras[2].Id)
	assert.True(t, cameras[2].HasFallback)
}

func TestManagerUnknownCamera(t *testing.T) {
	manager, _ := NewManager(context.Background(), testConfiguration(), newFakeFactory(scenarioFrame).New)

	assert.True(t, errors.Is(manager.Start("garage"), ErrCameraNotFound))
	assert.True(t, errors.Is(manager.Stop("garage"), ErrCameraNotFound))
	_, err := manager.Status("garage")
	assert.True(t, errors.Is(err, ErrCameraNotFound))
	_, err = manager.ProcessedFrame("missing")
	assert.True(t, errors.Is(err, ErrCameraNotFound))
}

func TestManagerStartStop(t *testing.T) {
	factory := newFakeFactory(scenarioFrame)
	manager, _ := NewManager(context.Background(), testConfiguration(), factory.New)
	defer manager.StopAll()

	require.NoError(t, manager.Start("back"))
	err := manager.Start("broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, capture.ErrSourceUnavailable))

	statuses := manager.StatusAll()
	require.Len(t, statuses, 3)
	assert.True(t, statuses["back"].Active)
	assert.False(t, statuses["broken"].Active)
	assert.False(t, statuses["front"].Active)
	assert.Equal(t, 1, manager.Active())

	require.NoError(t, manager.Stop("back"))
	assert.True(t, factory.source("back").released.Load())
	status, err := manager.Status("back")
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Equal(t, "idle", status.State)
}

func TestManagerAutoStartAndStats(t *testing.T) {
	factory := newFakeFactory(scenarioFrame)
	manager, _ := NewManager(context.Background(), testConfiguration(), factory.New)

	manager.AutoStart()
	assert.Equal(t, 1, manager.Active())
	require.Eventually(t, func() bool {
		return manager.Stats()["front"].Frames >= 10
	}, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, 640, manager.Stats()["front"].Width)
	assert.Zero(t, manager.Stats()["back"].Frames)

	frame, err := manager.ProcessedFrame("front")
	require.NoError(t, err)
	assert.NotNil(t, frame)

	manager.StopAll()
	assert.Equal(t, 0, manager.Active())
	assert.True(t, factory.source("front").released.Load())
}

func TestBootstrap(t *testing.T) {
	factory := newFakeFactory(scenarioFrame)
	agent := Bootstrap(context.Background(), t.TempDir(), testConfiguration(), factory.New)
	defer agent.Shutdown()

	assert.Nil(t, agent.MQTT)
	assert.Nil(t, agent.S3)
	assert.Equal(t, 1, agent.Active())
	assert.Equal(t, int64(1), agent.Metrics.ActiveDetectors.Load())

	require.Eventually(t, func() bool {
		return agent.Stats()["front"].Frames >= 50
	}, 30*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(agent.Metrics.FramesProcessed.WithLabelValues("front")), 50.0)
	assert.Equal(t, 1.0, testutil.ToFloat64(agent.Metrics.MotionEvents.WithLabelValues("front")))

	// The scenario is over, reads fail from now on.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(agent.Metrics.ReadErrors.WithLabelValues("front")) > 0
	}, 5*time.Second, 10*time.Millisecond)

	_, err := agent.Snapshot("front")
	assert.True(t, errors.Is(err, cloud.ErrNotConfigured))

	require.NoError(t, agent.Stop("front"))
	assert.Equal(t, int64(0), agent.Metrics.ActiveDetectors.Load())
}

func TestControlAgentReconnectsStalledCamera(t *testing.T) {
	factory := newFakeFactory(func(n int) *models.Frame {
		if n >= 3 {
			return nil
		}
		return uniformFrame(640, 480, 128)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager, _ := NewManager(ctx, testConfiguration(), factory.New)
	defer manager.StopAll()

	require.NoError(t, manager.Start("back"))
	go ControlAgent(ctx, manager, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return factory.source("back").opened.Load() >= 2
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		status, err := manager.Status("back")
		return err == nil && status.State == "running"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestUnreachableCameraStaysActive(t *testing.T) {
	var online atomic.Bool
	online.Store(true)
	factory := newFakeFactory(func(n int) *models.Frame {
		if !online.Load() {
			return nil
		}
		return uniformFrame(640, 480, 128)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager, _ := NewManager(ctx, testConfiguration(), factory.New)
	defer manager.StopAll()

	require.NoError(t, manager.Start("back"))
	go ControlAgent(ctx, manager, 20*time.Millisecond)
	detector, err := manager.Detector("back")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return detector.FramesProcessed() >= 3
	}, 5*time.Second, 10*time.Millisecond)

	// The camera goes away and refuses new connections.
	source := factory.source("back")
	source.setOpenErr(errors.New("connection refused"))
	online.Store(false)
	attempts := source.attempts.Load()

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		status, err := manager.Status("back")
		require.NoError(t, err)
		assert.True(t, status.Active)
		assert.Equal(t, "running", status.State)
		time.Sleep(10 * time.Millisecond)
	}
	assert.Greater(t, source.attempts.Load(), attempts+1)
	assert.NotNil(t, detector.ProcessedFrame())

	// Back online, the worker reconnects by itself.
	processed := detector.FramesProcessed()
	source.setOpenErr(nil)
	online.Store(true)
	require.Eventually(t, func() bool {
		return detector.FramesProcessed() > processed
	}, 5*time.Second, 10*time.Millisecond)
	status, err := manager.Status("back")
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.True(t, status.SourceOpen)
}
