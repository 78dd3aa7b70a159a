package components

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/cjsmocjsmo/streamserverclient/src/capture"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

// fakeSource plays frames produced by next. next returns nil when the
// script is over, reads fail from then on.
type fakeSource struct {
	mutex    sync.Mutex
	open     bool
	openErr  error
	next     func(n int) *models.Frame
	reads    int
	block    chan struct{}
	attempts atomic.Int32
	opened   atomic.Int32
	released atomic.Bool
}

func (s *fakeSource) setOpenErr(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.openErr = err
}

func (s *fakeSource) Open(locator string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.attempts.Add(1)
	if s.openErr != nil {
		return errors.Wrap(capture.ErrSourceUnavailable, s.openErr.Error())
	}
	s.open = true
	s.opened.Add(1)
	return nil
}

func (s *fakeSource) Read() (*models.Frame, bool) {
	if s.block != nil {
		<-s.block
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.open {
		return nil, false
	}
	frame := s.next(s.reads)
	if frame == nil {
		return nil, false
	}
	s.reads++
	return frame, true
}

func (s *fakeSource) IsOpen() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.open
}

func (s *fakeSource) Release() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.open = false
	s.released.Store(true)
}

func uniformFrame(width, height int, value byte) *models.Frame {
	frame := models.NewFrame(width, height)
	for i := range frame.Pix {
		frame.Pix[i] = value
	}
	return frame
}

func fillRect(frame *models.Frame, rect image.Rectangle, value byte) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			frame.Set(x, y, value, value, value)
		}
	}
}

// scenarioFrame is 30 static frames, 10 frames with a 32x64 rectangle
// walking to the right and 10 static frames again.
func scenarioFrame(n int) *models.Frame {
	if n >= 50 {
		return nil
	}
	frame := uniformFrame(640, 480, 128)
	if n >= 30 && n < 40 {
		x := 100 + (n-30)*8
		fillRect(frame, image.Rect(x, 200, x+32, 264), 255)
	}
	return frame
}

func testSettings() models.MotionSettings {
	settings := models.DefaultMotionSettings()
	settings.CycleDelay = 0
	settings.RetryBackoff = 10
	settings.StopTimeout = 500
	return settings
}

func testCamera(id string) *models.CameraConfig {
	return &models.CameraConfig{
		Id:   id,
		Name: id,
		URL:  "rtsp://127.0.0.1:8554/" + id,
	}
}
