package components

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/capture"
	"github.com/cjsmocjsmo/streamserverclient/src/computervision"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"github.com/tevino/abool"
)

// CycleReport describes one completed detection cycle.
type CycleReport struct {
	Frame     *models.Frame
	Boxes     []models.MotionBox
	Motion    bool
	Duration  time.Duration
	RenderErr error
}

// Hooks are called by the worker of a detector, outside of any lock.
// They must return quickly; slow work belongs in its own goroutine.
type Hooks struct {
	OnCycle        func(cameraId string, report CycleReport)
	OnReadFailure  func(cameraId string)
	OnCycleFailure func(cameraId string, err error)
	OnMotion       func(event models.MotionEvent)
	OnState        func(cameraId string, state models.DetectorState)
}

// ReconnectAfter is the number of consecutive failed reads after which the
// worker releases the camera and opens it again.
var ReconnectAfter = 10

// session is one run of the worker, from Start until Stop.
type session struct {
	id        uint64
	source    capture.FrameSource
	cancel    context.CancelFunc
	stopping  *abool.AtomicBool
	reconnect *abool.AtomicBool
	done      chan struct{}
}

// MotionDetector runs motion detection for one camera on a dedicated
// worker goroutine. It is started and stopped explicitly; consumers only
// read its state.
type MotionDetector struct {
	Camera   *models.CameraConfig
	Settings models.MotionSettings

	newSource func() capture.FrameSource
	gate      func(time.Time) bool
	now       func() time.Time

	lifecycle sync.Mutex
	status    atomic.Int32
	current   atomic.Pointer[session]
	sessions  atomic.Uint64
	sequence  atomic.Uint64
	processed atomic.Uint64
	state     DetectorState

	hooksMutex sync.RWMutex
	hooks      []Hooks
}

// NewMotionDetector creates an idle detector. newSource is called on every
// start, gate decides whether motion may be reported at a given time (nil
// always allows it).
func NewMotionDetector(camera *models.CameraConfig, settings models.MotionSettings, newSource func() capture.FrameSource, gate func(time.Time) bool) *MotionDetector {
	if gate == nil {
		gate = func(time.Time) bool { return true }
	}
	return &MotionDetector{
		Camera:    camera,
		Settings:  settings,
		newSource: newSource,
		gate:      gate,
		now:       time.Now,
	}
}

func (d *MotionDetector) AddHooks(hooks Hooks) {
	d.hooksMutex.Lock()
	defer d.hooksMutex.Unlock()
	d.hooks = append(d.hooks, hooks)
}

func (d *MotionDetector) getHooks() []Hooks {
	d.hooksMutex.RLock()
	defer d.hooksMutex.RUnlock()
	return d.hooks
}

func (d *MotionDetector) State() models.DetectorState {
	return models.DetectorState(d.status.Load())
}

func (d *MotionDetector) setState(state models.DetectorState) {
	d.status.Store(int32(state))
	for _, h := range d.getHooks() {
		if h.OnState != nil {
			h.OnState(d.Camera.Id, state)
		}
	}
}

// Start opens the camera and launches the worker. It returns once the
// camera is confirmed open, or with an error wrapping
// capture.ErrSourceUnavailable when it could not be opened. Starting a
// starting or running detector does nothing. ctx bounds the lifetime of the
// worker.
func (d *MotionDetector) Start(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if s := d.State(); s == models.StateStarting || s == models.StateRunning {
		return nil
	}
	d.setState(models.StateStarting)
	log.Log.Info("components.Detector.Start(): starting motion detection for " + d.Camera.Id)

	source := d.newSource()
	err := source.Open(d.Camera.URL)
	if err != nil {
		source.Release()
		d.setState(models.StateIdle)
		log.Log.Error("components.Detector.Start(): " + d.Camera.Id + ": " + err.Error())
		if !errors.Is(err, capture.ErrSourceUnavailable) {
			err = errors.Wrap(capture.ErrSourceUnavailable, err.Error())
		}
		return errors.Wrap(err, "camera "+d.Camera.Id)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	s := &session{
		id:        d.sessions.Add(1),
		source:    source,
		cancel:    cancel,
		stopping:  abool.New(),
		reconnect: abool.New(),
		done:      make(chan struct{}),
	}
	d.current.Store(s)
	d.state.begin(s.id)

	// A new session starts with an empty background model.
	pipeline := computervision.NewPipeline(d.Settings, d.Camera.Region)
	pipeline.Gate = d.gate
	go d.run(workerCtx, s, pipeline)

	d.setState(models.StateRunning)
	return nil
}

// Stop asks the worker to finish and waits for it at most the configured
// stop timeout. The camera is always released, even when the worker did
// not finish in time.
func (d *MotionDetector) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if s := d.State(); s == models.StateIdle || s == models.StateStopping {
		return
	}
	d.setState(models.StateStopping)

	s := d.current.Load()
	if s != nil {
		s.stopping.Set()
		s.cancel()

		timeout := time.Duration(d.Settings.StopTimeout) * time.Millisecond
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		select {
		case <-s.done:
		case <-time.After(timeout):
			log.Log.Warning("components.Detector.Stop(): worker of " + d.Camera.Id + " did not stop within " + timeout.String() + ", leaking it")
		}
		s.source.Release()
		d.state.end(s.id)
	}

	d.setState(models.StateIdle)
	log.Log.Info("components.Detector.Stop(): stopped motion detection for " + d.Camera.Id)
}

func (d *MotionDetector) run(ctx context.Context, s *session, pipeline *computervision.Pipeline) {
	defer close(s.done)
	defer pipeline.Close()

	delay := time.Duration(d.Settings.CycleDelay) * time.Millisecond
	backoff := time.Duration(d.Settings.RetryBackoff) * time.Millisecond
	if backoff <= 0 {
		backoff = time.Second
	}
	reconnectAfter := ReconnectAfter
	if reconnectAfter <= 0 {
		reconnectAfter = 10
	}
	failures := 0

	for {
		if s.stopping.IsSet() || ctx.Err() != nil {
			return
		}

		ok := d.cycle(s, pipeline)
		wait := delay
		if ok {
			if failures > 0 {
				log.Log.Info("components.Detector.run(): " + d.Camera.Id + " is delivering frames again")
			}
			failures = 0
		} else {
			failures++
			// Log the first failure and then every 30 failures.
			if failures%30 == 1 {
				log.Log.Warning("components.Detector.run(): " + d.Camera.Id + ": " + capture.ErrSourceUnavailable.Error() + " (" + strconv.Itoa(failures) + " failed reads)")
			}
			wait = backoff
		}
		if s.reconnect.IsSet() || (!ok && (!s.source.IsOpen() || failures%reconnectAfter == 0)) {
			d.reopen(s)
		}

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// reopen releases the camera of a session and opens it again. A failed
// open leaves the source closed, the next failed read tries again. The
// detector stays running either way.
func (d *MotionDetector) reopen(s *session) {
	s.reconnect.UnSet()
	if s.stopping.IsSet() {
		return
	}
	s.source.Release()
	err := s.source.Open(d.Camera.URL)
	if s.stopping.IsSet() {
		// Stop already released the camera while it was being opened.
		s.source.Release()
		return
	}
	if err != nil {
		log.Log.Debug("components.Detector.reopen(): " + d.Camera.Id + ": " + err.Error())
		return
	}
	log.Log.Info("components.Detector.reopen(): reconnected to " + d.Camera.Id)
}

// Reconnect asks the worker of a running detector to open its camera again
// before the next read.
func (d *MotionDetector) Reconnect() {
	if s := d.current.Load(); s != nil && d.State() == models.StateRunning {
		s.reconnect.Set()
	}
}

// cycle reads and analyses one frame. It returns false when no frame could
// be read. A failure inside the analysis never leaves the cycle.
func (d *MotionDetector) cycle(s *session, pipeline *computervision.Pipeline) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recovered from %v", r)
			log.Log.Error("components.Detector.cycle(): " + d.Camera.Id + ": " + err.Error())
			d.cycleFailed(err)
			ok = true
		}
	}()

	if s.stopping.IsSet() {
		return true
	}
	raw, read := s.source.Read()
	if !read || raw.Empty() {
		for _, h := range d.getHooks() {
			if h.OnReadFailure != nil {
				h.OnReadFailure(d.Camera.Id)
			}
		}
		return false
	}

	started := time.Now()
	frame, err := pipeline.Prepare(raw)
	if err != nil {
		log.Log.Debug("components.Detector.cycle(): " + err.Error())
		d.cycleFailed(err)
		return true
	}
	frame.Sequence = d.sequence.Add(1)
	if frame.Timestamp.IsZero() {
		frame.Timestamp = started
	}
	if !d.state.storeRaw(s.id, frame) {
		return true
	}

	now := d.now()
	result, err := pipeline.Process(frame, now)
	if err != nil {
		log.Log.Debug("components.Detector.cycle(): " + err.Error())
		d.cycleFailed(err)
		return true
	}
	if result.RenderErr != nil {
		log.Log.Debug("components.Detector.cycle(): " + result.RenderErr.Error())
	}

	motion := result.Motion
	onset, stored := d.state.storeCycle(s.id, frame, result.Processed, motion, len(result.Boxes), now)
	if !stored {
		return true
	}
	d.processed.Add(1)

	report := CycleReport{
		Frame:     result.Processed,
		Boxes:     result.Boxes,
		Motion:    motion,
		Duration:  time.Since(started),
		RenderErr: result.RenderErr,
	}
	for _, h := range d.getHooks() {
		if h.OnCycle != nil {
			h.OnCycle(d.Camera.Id, report)
		}
		if onset && h.OnMotion != nil {
			h.OnMotion(models.MotionEvent{
				CameraId:  d.Camera.Id,
				Timestamp: now,
				Boxes:     result.Boxes,
				Frame:     result.Processed,
			})
		}
	}
	return true
}

func (d *MotionDetector) cycleFailed(err error) {
	for _, h := range d.getHooks() {
		if h.OnCycleFailure != nil {
			h.OnCycleFailure(d.Camera.Id, err)
		}
	}
}

// Status returns the current status, it never blocks on the worker.
func (d *MotionDetector) Status() models.DetectorStatus {
	snapshot := d.state.Summary()
	status := models.DetectorStatus{
		CameraId:       d.Camera.Id,
		CameraName:     d.Camera.Name,
		Active:         snapshot.Active,
		State:          d.State().String(),
		MotionDetected: snapshot.MotionDetected,
		LastMotionTime: snapshot.LastMotionTime,
		Sequence:       snapshot.Sequence,
		Boxes:          snapshot.Boxes,
	}
	if s := d.current.Load(); s != nil && snapshot.Active {
		status.SourceOpen = s.source.IsOpen()
	}
	return status
}

// ProcessedFrame returns the latest annotated frame, the latest raw frame
// when no annotated frame is available, or nil.
func (d *MotionDetector) ProcessedFrame() *models.Frame {
	return d.state.Frame()
}

// Snapshot returns a consistent copy of the shared state.
func (d *MotionDetector) Snapshot() StateSnapshot {
	return d.state.Snapshot()
}

// FramesProcessed is the number of completed cycles since creation.
func (d *MotionDetector) FramesProcessed() uint64 {
	return d.processed.Load()
}
