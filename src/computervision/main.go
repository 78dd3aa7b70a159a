// Package computervision turns raw camera frames into motion boxes and
// annotated frames: background subtraction, mask cleanup, blob
// extraction and overlay rendering.
package computervision

import (
	"image"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ToMat copies a frame into a new BGR Mat. The Mat owns its memory and has
// to be closed by the caller.
func ToMat(frame *models.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), errors.New("computervision.ToMat(): empty frame")
	}
	data := make([]byte, frame.Width*frame.Height*3)
	copy(data, frame.Pix)
	shared, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "computervision.ToMat()")
	}
	defer shared.Close()
	return shared.Clone(), nil
}

// FromMat copies a Mat back into a frame. Gray and BGRA images are
// converted to BGR.
func FromMat(mat gocv.Mat) (*models.Frame, error) {
	if mat.Empty() {
		return nil, errors.New("computervision.FromMat(): empty mat")
	}

	var code gocv.ColorConversionCode
	switch mat.Channels() {
	case 3:
		if mat.IsContinuous() {
			return frameFromBGR(mat), nil
		}
		continuous := mat.Clone()
		defer continuous.Close()
		return frameFromBGR(continuous), nil
	case 1:
		code = gocv.ColorGrayToBGR
	case 4:
		code = gocv.ColorBGRAToBGR
	default:
		return nil, errors.Errorf("computervision.FromMat(): unsupported channel count %d", mat.Channels())
	}

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, code)
	return frameFromBGR(bgr), nil
}

func frameFromBGR(mat gocv.Mat) *models.Frame {
	return &models.Frame{
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Pix:    mat.ToBytes(),
	}
}

// Resize scales a frame to the processing resolution. Frames that already
// have the requested size are returned as is.
func Resize(frame *models.Frame, width int, height int) (*models.Frame, error) {
	if frame.Width == width && frame.Height == height {
		return frame, nil
	}
	src, err := ToMat(frame)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	interpolation := gocv.InterpolationLinear
	if frame.Width > width {
		interpolation = gocv.InterpolationArea
	}
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, interpolation)

	resized, err := FromMat(dst)
	if err != nil {
		return nil, err
	}
	resized.Sequence = frame.Sequence
	resized.Timestamp = frame.Timestamp
	return resized, nil
}
