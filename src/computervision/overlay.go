package computervision

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var ErrRenderFailure = errors.New("overlay rendering failed")

var (
	boxColor   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	labelColor = color.RGBA{R: 0, G: 0, B: 0, A: 0}
	alertColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	idleColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	clockColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

const (
	StatusMotion     = "MOTION DETECTED"
	StatusMonitoring = "Monitoring"
)

// OverlayRenderer draws the motion boxes and a status and timestamp line on
// a copy of a frame.
type OverlayRenderer struct {
	Font      gocv.HersheyFont
	FontScale float64
	Thickness int
}

func NewOverlayRenderer() OverlayRenderer {
	return OverlayRenderer{
		Font:      gocv.FontHersheySimplex,
		FontScale: 0.5,
		Thickness: 2,
	}
}

// Render returns an annotated copy of frame, the input is never touched.
// A failure inside the drawing code is returned as ErrRenderFailure.
func (r OverlayRenderer) Render(frame *models.Frame, boxes []models.MotionBox, motionFound bool, ts time.Time) (annotated *models.Frame, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			annotated = nil
			err = errors.Wrap(ErrRenderFailure, fmt.Sprintf("%v", rec))
		}
	}()

	canvas, err := ToMat(frame)
	if err != nil {
		return nil, errors.Wrap(ErrRenderFailure, err.Error())
	}
	defer canvas.Close()

	for _, box := range boxes {
		r.drawBox(&canvas, box)
	}

	status, statusColor := StatusMonitoring, idleColor
	if motionFound {
		status, statusColor = StatusMotion, alertColor
	}
	gocv.PutText(&canvas, status, image.Pt(10, 30), r.Font, 0.7, statusColor, r.Thickness)
	gocv.PutText(&canvas, utils.FormatTimestamp(ts), image.Pt(10, canvas.Rows()-10), r.Font, r.FontScale, clockColor, 1)

	annotated, err = FromMat(canvas)
	if err != nil {
		return nil, errors.Wrap(ErrRenderFailure, err.Error())
	}
	annotated.Sequence = frame.Sequence
	annotated.Timestamp = frame.Timestamp
	return annotated, nil
}

func (r OverlayRenderer) drawBox(canvas *gocv.Mat, box models.MotionBox) {
	rect := box.Rect()
	gocv.Rectangle(canvas, rect, boxColor, r.Thickness)

	label := fmt.Sprintf("Motion: %d", int(box.Area))
	size := gocv.GetTextSize(label, r.Font, r.FontScale, 1)

	// The label sits on top of the box, or just inside it when the box
	// touches the upper border.
	top := rect.Min.Y - size.Y - 10
	if top < 0 {
		top = rect.Min.Y
	}
	background := image.Rect(rect.Min.X, top, rect.Min.X+size.X+6, top+size.Y+10)
	gocv.Rectangle(canvas, background, boxColor, -1)
	gocv.PutText(canvas, label, image.Pt(rect.Min.X+3, top+size.Y+5), r.Font, r.FontScale, labelColor, 1)
}
