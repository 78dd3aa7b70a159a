package computervision

import (
	"image"
	"image/color"
	"testing"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"gocv.io/x/gocv"
)

func grayFrame(width, height int, value byte) *models.Frame {
	frame := models.NewFrame(width, height)
	for i := range frame.Pix {
		frame.Pix[i] = value
	}
	return frame
}

func fillRect(frame *models.Frame, rect image.Rectangle, value byte) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			frame.Set(x, y, value, value, value)
		}
	}
}

func blankMask(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8U)
}

func maskWithRects(t *testing.T, width, height int, rects ...image.Rectangle) gocv.Mat {
	t.Helper()
	mask := blankMask(width, height)
	for _, r := range rects {
		gocv.Rectangle(&mask, r, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	}
	return mask
}
