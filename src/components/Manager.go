package components

import (
	"context"
	"sort"
	"sync"

	"github.com/cjsmocjsmo/streamserverclient/src/capture"
	"github.com/cjsmocjsmo/streamserverclient/src/conditions"
	"github.com/cjsmocjsmo/streamserverclient/src/config"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

var ErrCameraNotFound = errors.New("camera not found")

// SourceFactory builds the frame source of a camera.
type SourceFactory func(camera *models.CameraConfig, settings models.MotionSettings) capture.FrameSource

// Manager owns one motion detector per configured camera.
type Manager struct {
	ctx       context.Context
	mutex     sync.RWMutex
	detectors map[string]*MotionDetector
	order     []string
}

// NewManager creates an idle detector for every valid camera of the
// configuration. Cameras that cannot be started are returned as problems,
// they are reported once and ignored afterwards.
func NewManager(ctx context.Context, configuration *models.Configuration, factory SourceFactory) (*Manager, []error) {
	if factory == nil {
		factory = capture.NewSource
	}
	cfg := &configuration.Config
	valid, problems := config.ValidateCameras(cfg)
	for _, problem := range problems {
		log.Log.Error("components.Manager.NewManager(): " + problem.Error())
	}

	m := &Manager{
		ctx:       ctx,
		detectors: map[string]*MotionDetector{},
	}
	for _, id := range valid {
		camera := cfg.Cameras[id]
		settings := config.ResolveMotionSettings(cfg.Motion, camera)
		newSource := func() capture.FrameSource {
			return factory(camera, settings)
		}
		m.detectors[id] = NewMotionDetector(camera, settings, newSource, conditions.Gate(cfg, camera))
		m.order = append(m.order, id)
	}
	sort.Strings(m.order)
	return m, problems
}

func (m *Manager) Detector(id string) (*MotionDetector, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	d, ok := m.detectors[id]
	if !ok {
		return nil, errors.Wrap(ErrCameraNotFound, id)
	}
	return d, nil
}

// AddHooks registers hooks on every detector.
func (m *Manager) AddHooks(hooks Hooks) {
	for _, d := range m.all() {
		d.AddHooks(hooks)
	}
}

func (m *Manager) all() []*MotionDetector {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	detectors := make([]*MotionDetector, 0, len(m.order))
	for _, id := range m.order {
		detectors = append(detectors, m.detectors[id])
	}
	return detectors
}

func (m *Manager) Start(id string) error {
	d, err := m.Detector(id)
	if err != nil {
		return err
	}
	return d.Start(m.ctx)
}

func (m *Manager) Stop(id string) error {
	d, err := m.Detector(id)
	if err != nil {
		return err
	}
	d.Stop()
	return nil
}

func (m *Manager) Status(id string) (models.DetectorStatus, error) {
	d, err := m.Detector(id)
	if err != nil {
		return models.DetectorStatus{}, err
	}
	return d.Status(), nil
}

// StatusAll maps every camera identifier to its status.
func (m *Manager) StatusAll() map[string]models.DetectorStatus {
	statuses := map[string]models.DetectorStatus{}
	for _, d := range m.all() {
		statuses[d.Camera.Id] = d.Status()
	}
	return statuses
}

func (m *Manager) ProcessedFrame(id string) (*models.Frame, error) {
	d, err := m.Detector(id)
	if err != nil {
		return nil, err
	}
	return d.ProcessedFrame(), nil
}

// Cameras lists the cameras without their urls.
func (m *Manager) Cameras() []models.CameraInfo {
	var cameras []models.CameraInfo
	for _, d := range m.all() {
		cameras = append(cameras, models.CameraInfo{
			Id:          d.Camera.Id,
			Name:        d.Camera.Name,
			Description: d.Camera.Description,
			HasFallback: d.Camera.FallbackURL != "",
		})
	}
	return cameras
}

// Stats returns the number of processed frames and the processing
// resolution of every camera.
func (m *Manager) Stats() map[string]models.CameraStats {
	stats := map[string]models.CameraStats{}
	for _, d := range m.all() {
		stats[d.Camera.Id] = models.CameraStats{
			Frames: d.FramesProcessed(),
			Width:  d.Settings.Width,
			Height: d.Settings.Height,
		}
	}
	return stats
}

// Camera returns the configuration of a camera.
func (m *Manager) Camera(id string) (*models.CameraConfig, error) {
	d, err := m.Detector(id)
	if err != nil {
		return nil, err
	}
	return d.Camera, nil
}

// AutoStart starts the cameras with auto_start enabled. Failures are
// logged, the camera stays idle until it is started explicitly.
func (m *Manager) AutoStart() {
	for _, d := range m.all() {
		if d.Camera.AutoStart != "true" {
			continue
		}
		if err := d.Start(m.ctx); err != nil {
			log.Log.Error("components.Manager.AutoStart(): " + err.Error())
		}
	}
}

// StopAll stops every detector in parallel.
func (m *Manager) StopAll() {
	var wg sync.WaitGroup
	for _, d := range m.all() {
		wg.Add(1)
		go func(d *MotionDetector) {
			defer wg.Done()
			d.Stop()
		}(d)
	}
	wg.Wait()
}

// Active returns the number of running detectors.
func (m *Manager) Active() int {
	active := 0
	for _, d := range m.all() {
		if d.State() == models.StateRunning {
			active++
		}
	}
	return active
}
