package computervision

import (
	"image"
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDoesNotMutateInput(t *testing.T) {
	renderer := NewOverlayRenderer()
	frame := grayFrame(320, 240, 128)
	frame.Sequence = 42
	fillRect(frame, image.Rect(100, 100, 132, 164), 255)
	before := make([]byte, len(frame.Pix))
	copy(before, frame.Pix)

	boxes := []models.MotionBox{{X: 100, Y: 100, Width: 32, Height: 64, Area: 1953}}
	annotated, err := renderer.Render(frame, boxes, true, time.Now())
	require.NoError(t, err)

	assert.Equal(t, before, frame.Pix)
	assert.NotEqual(t, frame.Pix, annotated.Pix)
	assert.Equal(t, frame.Width, annotated.Width)
	assert.Equal(t, frame.Height, annotated.Height)
	assert.Equal(t, uint64(42), annotated.Sequence)
}

func TestRenderWithoutBoxesDrawsStatus(t *testing.T) {
	renderer := NewOverlayRenderer()
	frame := grayFrame(320, 240, 128)

	annotated, err := renderer.Render(frame, nil, false, time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, frame.Pix, annotated.Pix)

	// The box area in the middle of the frame stays untouched.
	b, g, r := annotated.At(160, 120)
	assert.Equal(t, []byte{128, 128, 128}, []byte{b, g, r})
}

func TestRenderBoxAtUpperBorder(t *testing.T) {
	renderer := NewOverlayRenderer()
	frame := grayFrame(320, 240, 128)

	boxes := []models.MotionBox{{X: 0, Y: 0, Width: 40, Height: 80, Area: 3081}}
	_, err := renderer.Render(frame, boxes, true, time.Now())
	assert.NoError(t, err)
}

func TestRenderEmptyFrame(t *testing.T) {
	renderer := NewOverlayRenderer()

	annotated, err := renderer.Render(&models.Frame{}, nil, false, time.Now())
	assert.Nil(t, annotated)
	assert.True(t, errors.Is(err, ErrRenderFailure))
}
