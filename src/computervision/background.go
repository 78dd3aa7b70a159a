package computervision

import (
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"gocv.io/x/gocv"
)

// BackgroundModel keeps a per pixel mixture of gaussians of the scene and
// classifies every new frame against it. Classification and model update
// happen in the same Apply call. A BackgroundModel is not safe for
// concurrent use; it belongs to the worker of one camera.
type BackgroundModel struct {
	history         int
	varThreshold    float64
	detectShadows   bool
	shadowThreshold float32

	mog2 gocv.BackgroundSubtractorMOG2
	raw  gocv.Mat
}

func NewBackgroundModel(settings models.MotionSettings) *BackgroundModel {
	b := &BackgroundModel{
		history:         settings.History,
		varThreshold:    settings.VarThreshold,
		detectShadows:   settings.ShadowsEnabled(),
		shadowThreshold: settings.ShadowThreshold,
		raw:             gocv.NewMat(),
	}
	if b.shadowThreshold <= 0 {
		b.shadowThreshold = 200
	}
	b.mog2 = gocv.NewBackgroundSubtractorMOG2WithParams(b.history, b.varThreshold, b.detectShadows)
	return b
}

// Apply updates the model with frame and returns the foreground mask: a
// single channel Mat of the same size holding 0 (background) or 255
// (foreground). Shadows (marked 127 by MOG2) are folded into the
// background. The caller owns the returned Mat.
func (b *BackgroundModel) Apply(frame gocv.Mat) gocv.Mat {
	b.mog2.Apply(frame, &b.raw)
	mask := gocv.NewMat()
	gocv.Threshold(b.raw, &mask, b.shadowThreshold, 255, gocv.ThresholdBinary)
	return mask
}

// Reset forgets the learned background.
func (b *BackgroundModel) Reset() {
	b.mog2.Close()
	b.mog2 = gocv.NewBackgroundSubtractorMOG2WithParams(b.history, b.varThreshold, b.detectShadows)
}

func (b *BackgroundModel) Close() {
	b.mog2.Close()
	b.raw.Close()
}
