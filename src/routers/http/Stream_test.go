package http

import (
	"testing"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/stretchr/testify/assert"
)

func TestFrameCursor(t *testing.T) {
	frame := func(sequence uint64, processed bool) *models.Frame {
		f := models.NewFrame(4, 4)
		f.Sequence = sequence
		f.Processed = processed
		return f
	}

	var cursor frameCursor
	assert.False(t, cursor.advance(nil))

	// The raw frame of a running cycle, then its annotated frame.
	assert.True(t, cursor.advance(frame(7, false)))
	assert.False(t, cursor.advance(frame(7, false)))
	assert.True(t, cursor.advance(frame(7, true)))
	assert.False(t, cursor.advance(frame(7, true)))
	assert.False(t, cursor.advance(frame(7, false)))

	assert.True(t, cursor.advance(frame(8, true)))
	assert.False(t, cursor.advance(frame(8, true)))

	// A restarted detector counts again from the start.
	assert.True(t, cursor.advance(frame(1, false)))
}
