package capture

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

// FFmpegSource decodes a stream with an ffmpeg child process that writes
// raw bgr24 frames, already scaled to the processing resolution, to its
// stdout.
type FFmpegSource struct {
	Binary       string
	Width        int
	Height       int
	ReadTimeout  time.Duration
	OpenTimeout  time.Duration
	BufferFrames int

	mutex  sync.Mutex
	cancel context.CancelFunc
	read   chan *models.Frame
	done   chan struct{}
}

func NewFFmpegSource(width int, height int, readTimeout time.Duration) *FFmpegSource {
	if readTimeout <= 0 {
		readTimeout = 100 * time.Millisecond
	}
	return &FFmpegSource{
		Binary:       "ffmpeg",
		Width:        width,
		Height:       height,
		ReadTimeout:  readTimeout,
		OpenTimeout:  10 * time.Second,
		BufferFrames: 3,
	}
}

// Arguments returns the ffmpeg command line used for locator.
func (s *FFmpegSource) Arguments(locator string) []string {
	var args []string
	if strings.HasPrefix(locator, "rtsp://") || strings.HasPrefix(locator, "rtsps://") {
		args = append(args, "-rtsp_transport", "tcp")
	}
	args = append(args,
		"-i", locator,
		"-vf", "scale="+strconv.Itoa(s.Width)+":"+strconv.Itoa(s.Height),
		"-pix_fmt", "bgr24",
		"-f", "rawvideo",
		"-an",
		"-loglevel", "error",
		"-",
	)
	return args
}

// Open starts ffmpeg and waits until the first frame arrives.
func (s *FFmpegSource) Open(locator string) error {
	s.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.Binary, s.Arguments(locator)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return errors.Wrap(ErrSourceUnavailable, "ffmpeg: "+err.Error())
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return errors.Wrap(ErrSourceUnavailable, "ffmpeg: "+err.Error())
	}

	buffer, write, read := CreateBuffer(s.BufferFrames)
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.pump(stdout, write, started)
		buffer.Close()
		cmd.Wait()
		close(done)
	}()

	select {
	case <-started:
	case <-done:
		cancel()
		return errors.Wrap(ErrSourceUnavailable, "ffmpeg exited: "+strings.TrimSpace(stderr.String()))
	case <-time.After(s.OpenTimeout):
		cancel()
		return errors.Wrap(ErrSourceUnavailable, "ffmpeg: no frame within "+s.OpenTimeout.String())
	}

	s.mutex.Lock()
	s.cancel = cancel
	s.read = read
	s.done = done
	s.mutex.Unlock()
	log.Log.Info("capture.FFmpeg.Open(): streaming " + strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height) + " frames")
	return nil
}

// pump cuts the raw byte stream into frames. started is closed when the
// first frame is complete.
func (s *FFmpegSource) pump(r io.Reader, write chan *models.Frame, started chan struct{}) {
	size := s.Width * s.Height * 3
	reader := bufio.NewReaderSize(r, size)
	first := true
	for {
		frame := models.NewFrame(s.Width, s.Height)
		if _, err := io.ReadFull(reader, frame.Pix); err != nil {
			if err != io.EOF {
				log.Log.Debug("capture.FFmpeg.pump(): " + err.Error())
			}
			return
		}
		frame.Timestamp = time.Now()
		write <- frame
		if first {
			close(started)
			first = false
		}
	}
}

func (s *FFmpegSource) Read() (*models.Frame, bool) {
	s.mutex.Lock()
	read := s.read
	s.mutex.Unlock()
	if read == nil {
		return nil, false
	}
	select {
	case frame, ok := <-read:
		return frame, ok
	case <-time.After(s.ReadTimeout):
		return nil, false
	}
}

func (s *FFmpegSource) IsOpen() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Release kills the ffmpeg process.
func (s *FFmpegSource) Release() {
	s.mutex.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.read = nil
	s.done = nil
	s.mutex.Unlock()
	if cancel != nil {
		cancel()
	}
}
