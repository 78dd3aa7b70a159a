package computervision

import (
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

// Result is the outcome of one analysis cycle.
type Result struct {
	Processed *models.Frame
	Boxes     []models.MotionBox
	Motion    bool
	// RenderErr is set when the overlay failed, Processed then holds a copy
	// of the raw frame.
	RenderErr error
}

// Pipeline chains background subtraction, mask cleanup, blob extraction,
// region filtering and overlay rendering for one camera. It is owned by a
// single worker and must not be shared between goroutines.
type Pipeline struct {
	Settings models.MotionSettings
	// Gate decides whether motion may be reported at a given time. Boxes
	// found outside of it are still drawn, the status line says
	// monitoring. Nil always allows reporting.
	Gate func(time.Time) bool

	background *BackgroundModel
	cleaner    *ForegroundCleaner
	extractor  BlobExtractor
	renderer   OverlayRenderer
	region     *Region
	frames     int
}

func NewPipeline(settings models.MotionSettings, region *models.Region) *Pipeline {
	return &Pipeline{
		Settings:   settings,
		background: NewBackgroundModel(settings),
		cleaner:    NewForegroundCleaner(settings.KernelSize),
		extractor:  NewBlobExtractor(settings),
		renderer:   NewOverlayRenderer(),
		region:     NewRegion(region),
	}
}

// Prepare scales a raw frame to the processing resolution.
func (p *Pipeline) Prepare(raw *models.Frame) (*models.Frame, error) {
	if p.Settings.Width <= 0 || p.Settings.Height <= 0 {
		return raw, nil
	}
	return Resize(raw, p.Settings.Width, p.Settings.Height)
}

// Process analyses one frame that already has the processing resolution.
// An error means the frame could not be analysed at all; render failures
// are reported through Result.RenderErr.
func (p *Pipeline) Process(raw *models.Frame, now time.Time) (Result, error) {
	var result Result

	frame, err := ToMat(raw)
	if err != nil {
		return result, errors.Wrap(err, "computervision.pipeline.Process()")
	}
	defer frame.Close()

	mask := p.background.Apply(frame)
	defer mask.Close()
	cleaned := p.cleaner.Clean(mask)
	defer cleaned.Close()

	p.frames++
	if p.frames > p.Settings.WarmupFrames {
		result.Boxes = p.region.Filter(p.extractor.Extract(cleaned))
	}
	result.Motion = len(result.Boxes) > 0 && (p.Gate == nil || p.Gate(now))

	processed, err := p.renderer.Render(raw, result.Boxes, result.Motion, now)
	if err != nil {
		result.RenderErr = err
		processed = raw.Clone()
	}
	processed.Processed = true
	result.Processed = processed
	return result, nil
}

// Reset drops the learned background, the next frame starts a new session.
func (p *Pipeline) Reset() {
	p.background.Reset()
	p.frames = 0
}

func (p *Pipeline) Close() {
	p.background.Close()
	p.cleaner.Close()
}
