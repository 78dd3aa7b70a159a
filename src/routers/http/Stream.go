package http

import (
	"context"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/computervision"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/hybridgroup/mjpeg"
)

// Streams holds one MJPEG stream per camera. A stream is fed with the
// annotated frames of its camera from the first request on, until ctx is
// done.
type Streams struct {
	Interval time.Duration
	Quality  int

	ctx        context.Context
	controller Controller
	mutex      sync.Mutex
	streams    map[string]*mjpeg.Stream
}

func NewStreams(ctx context.Context, controller Controller) *Streams {
	return &Streams{
		Interval:   100 * time.Millisecond,
		Quality:    computervision.DefaultJPEGQuality,
		ctx:        ctx,
		controller: controller,
		streams:    map[string]*mjpeg.Stream{},
	}
}

// Stream returns the stream of a camera, it is created on first use.
func (s *Streams) Stream(id string) *mjpeg.Stream {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stream, ok := s.streams[id]
	if !ok {
		stream = mjpeg.NewStream()
		s.streams[id] = stream
		go s.feed(id, stream)
	}
	return stream
}

// frameCursor remembers the last frame pushed to a stream.
type frameCursor struct {
	sequence  uint64
	processed bool
}

// advance reports whether frame has to be pushed and moves the cursor to
// it. The annotated frame of a sequence is pushed even when its raw frame
// was pushed before.
func (c *frameCursor) advance(frame *models.Frame) bool {
	if !frame.Newer(c.sequence, c.processed) {
		return false
	}
	c.sequence = frame.Sequence
	c.processed = frame.Processed
	return true
}

// feed encodes a frame only when the detector published a new one.
func (s *Streams) feed(id string, stream *mjpeg.Stream) {
	log.Log.Debug("routers.http.Streams.feed(): started for " + id)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	var cursor frameCursor
	for {
		select {
		case <-s.ctx.Done():
			log.Log.Debug("routers.http.Streams.feed(): stopped for " + id)
			return
		case <-ticker.C:
		}

		frame, err := s.controller.ProcessedFrame(id)
		if err != nil || !cursor.advance(frame) {
			continue
		}
		jpeg, err := computervision.EncodeJPEG(frame, s.Quality)
		if err != nil {
			log.Log.Debug("routers.http.Streams.feed(): " + err.Error())
			continue
		}
		stream.UpdateJPEG(jpeg)
	}
}
