package capture

import (
	"strings"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/computervision"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Backend is one of the decoding backends of OpenCV.
type Backend struct {
	Name string
	API  gocv.VideoCaptureAPI
}

// DefaultBackends are tried in order when opening a camera.
var DefaultBackends = []Backend{
	{Name: "ffmpeg", API: gocv.VideoCaptureFFmpeg},
	{Name: "gstreamer", API: gocv.VideoCaptureGstreamer},
	{Name: "any", API: gocv.VideoCaptureAny},
}

// VideoCaptureSource reads frames through OpenCV.
type VideoCaptureSource struct {
	backends []Backend

	mutex    sync.Mutex
	capture  *gocv.VideoCapture
	buffer   gocv.Mat
	backend  string
	reading  bool
	released bool
}

func NewVideoCaptureSource(backends ...Backend) *VideoCaptureSource {
	if len(backends) == 0 {
		backends = DefaultBackends
	}
	return &VideoCaptureSource{backends: backends}
}

func (s *VideoCaptureSource) Open(locator string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closeCapture()
	s.released = false

	var failures []string
	for _, backend := range s.backends {
		capture, err := gocv.OpenVideoCaptureWithAPI(locator, backend.API)
		if err != nil || capture == nil || !capture.IsOpened() {
			if capture != nil {
				capture.Close()
			}
			reason := "not opened"
			if err != nil {
				reason = err.Error()
			}
			log.Log.Debug("capture.VideoCapture.Open(): backend " + backend.Name + " failed: " + reason)
			failures = append(failures, backend.Name+": "+reason)
			continue
		}

		// Keep the internal queue short, we only want the latest frame.
		capture.Set(gocv.VideoCaptureBufferSize, 1)
		s.capture = capture
		s.buffer = gocv.NewMat()
		s.backend = backend.Name
		log.Log.Info("capture.VideoCapture.Open(): opened stream with backend " + backend.Name)
		return nil
	}
	return errors.Wrap(ErrSourceUnavailable, "opencv ("+strings.Join(failures, ", ")+")")
}

func (s *VideoCaptureSource) Read() (*models.Frame, bool) {
	s.mutex.Lock()
	if s.capture == nil || s.released {
		s.mutex.Unlock()
		return nil, false
	}
	s.reading = true
	capture := s.capture
	s.mutex.Unlock()

	ok := capture.Read(&s.buffer)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.reading = false
	if s.released {
		// Release was called while we were reading.
		s.closeCapture()
		return nil, false
	}
	if !ok || s.buffer.Empty() {
		return nil, false
	}
	frame, err := computervision.FromMat(s.buffer)
	if err != nil {
		log.Log.Debug("capture.VideoCapture.Read(): " + err.Error())
		return nil, false
	}
	frame.Timestamp = time.Now()
	return frame, true
}

func (s *VideoCaptureSource) IsOpen() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.capture != nil && !s.released && s.capture.IsOpened()
}

// Backend returns the name of the backend that opened the stream.
func (s *VideoCaptureSource) Backend() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.backend
}

func (s *VideoCaptureSource) Release() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.released = true
	if s.reading {
		// The reader closes the capture once its read returns.
		return
	}
	s.closeCapture()
}

func (s *VideoCaptureSource) closeCapture() {
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
		s.buffer.Close()
	}
}
