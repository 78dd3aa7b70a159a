package computervision

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A static scene, then a 32x64 white rectangle walking to the right, then
// the static scene again.
func TestPipelineScenario(t *testing.T) {
	settings := models.DefaultMotionSettings()
	pipeline := NewPipeline(settings, nil)
	defer pipeline.Close()

	now := time.Now()
	run := func(frame *models.Frame) Result {
		prepared, err := pipeline.Prepare(frame)
		require.NoError(t, err)
		result, err := pipeline.Process(prepared, now)
		require.NoError(t, err)
		require.NoError(t, result.RenderErr)
		return result
	}

	for i := 0; i < 30; i++ {
		result := run(grayFrame(640, 480, 128))
		assert.False(t, result.Motion, "static frame %d", i)
		assert.Empty(t, result.Boxes)
	}

	for i := 0; i < 10; i++ {
		frame := grayFrame(640, 480, 128)
		x := 100 + i*8
		fillRect(frame, image.Rect(x, 200, x+32, 264), 255)

		result := run(frame)
		require.True(t, result.Motion, "moving frame %d", i)
		require.Len(t, result.Boxes, 1)
		box := result.Boxes[0]
		assert.InDelta(t, x, box.X, 2)
		assert.InDelta(t, 2.0, float64(box.Height)/float64(box.Width), 0.2)
		assert.InDelta(t, 2000, box.Area, 150)
	}

	for i := 0; i < 10; i++ {
		result := run(grayFrame(640, 480, 128))
		assert.False(t, result.Motion, "background frame %d", i)
	}
}

func TestPipelineWarmup(t *testing.T) {
	settings := models.DefaultMotionSettings()
	settings.WarmupFrames = 5
	pipeline := NewPipeline(settings, nil)
	defer pipeline.Close()

	frame := grayFrame(640, 480, 128)
	fillRect(frame, image.Rect(100, 200, 132, 264), 255)
	for i := 0; i < 5; i++ {
		result, err := pipeline.Process(frame, time.Now())
		require.NoError(t, err)
		assert.False(t, result.Motion)
	}
}

func TestPipelinePrepareResizes(t *testing.T) {
	pipeline := NewPipeline(models.DefaultMotionSettings(), nil)
	defer pipeline.Close()

	frame := grayFrame(320, 240, 90)
	frame.Sequence = 7
	prepared, err := pipeline.Prepare(frame)
	require.NoError(t, err)
	assert.Equal(t, 640, prepared.Width)
	assert.Equal(t, 480, prepared.Height)
	assert.Equal(t, uint64(7), prepared.Sequence)
	b, g, r := prepared.At(320, 240)
	assert.Equal(t, []byte{90, 90, 90}, []byte{b, g, r})
}

func TestEncodeJPEG(t *testing.T) {
	encoded, err := EncodeJPEG(grayFrame(320, 240, 128), 85)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
}

func TestPlaceholder(t *testing.T) {
	encoded, err := Placeholder(640, 480, "Motion detection not active")
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
}

func TestPipelineGateSuppressesMotion(t *testing.T) {
	settings := models.DefaultMotionSettings()
	pipeline := NewPipeline(settings, nil)
	defer pipeline.Close()
	pipeline.Gate = func(time.Time) bool { return false }

	now := time.Now()
	for i := 0; i < 30; i++ {
		_, err := pipeline.Process(grayFrame(640, 480, 128), now)
		require.NoError(t, err)
	}

	frame := grayFrame(640, 480, 128)
	fillRect(frame, image.Rect(100, 200, 132, 264), 255)
	result, err := pipeline.Process(frame, now)
	require.NoError(t, err)
	assert.False(t, result.Motion)
	require.Len(t, result.Boxes, 1)
	assert.True(t, result.Processed.Processed)

	// The status line matches the reported flag.
	expected, err := NewOverlayRenderer().Render(frame, result.Boxes, false, now)
	require.NoError(t, err)
	assert.Equal(t, expected.Pix, result.Processed.Pix)
}
