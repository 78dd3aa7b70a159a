package capture

import (
	"bytes"
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFmpegArguments(t *testing.T) {
	source := NewFFmpegSource(640, 480, 0)
	assert.Equal(t, []string{
		"-rtsp_transport", "tcp",
		"-i", "rtsp://camera/stream",
		"-vf", "scale=640:480",
		"-pix_fmt", "bgr24",
		"-f", "rawvideo",
		"-an",
		"-loglevel", "error",
		"-",
	}, source.Arguments("rtsp://camera/stream"))

	assert.NotContains(t, source.Arguments("/tmp/video.mp4"), "-rtsp_transport")
}

func TestFFmpegPumpSplitsFrames(t *testing.T) {
	source := NewFFmpegSource(4, 2, 10*time.Millisecond)
	size := 4 * 2 * 3
	raw := make([]byte, 2*size+5) // two frames and a truncated one
	for i := range raw {
		raw[i] = byte(i / size)
	}

	write := make(chan *models.Frame, 4)
	started := make(chan struct{})
	source.pump(bytes.NewReader(raw), write, started)
	close(write)

	var frames []*models.Frame
	for f := range write {
		frames = append(frames, f)
	}
	require.Len(t, frames, 2)
	assert.Equal(t, byte(0), frames[0].Pix[0])
	assert.Equal(t, byte(1), frames[1].Pix[0])
	assert.Equal(t, 4, frames[1].Width)

	select {
	case <-started:
	default:
		t.Fatal("started was not closed")
	}
}

func TestFFmpegNotOpened(t *testing.T) {
	source := NewFFmpegSource(4, 2, 10*time.Millisecond)
	assert.False(t, source.IsOpen())
	_, ok := source.Read()
	assert.False(t, ok)
	source.Release()
}

func TestFFmpegMissingBinary(t *testing.T) {
	source := NewFFmpegSource(4, 2, 10*time.Millisecond)
	source.Binary = "/nonexistent/ffmpeg"
	err := source.Open("rtsp://camera/stream")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
