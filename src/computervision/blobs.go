package computervision

import (
	"image"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"gocv.io/x/gocv"
)

// BlobExtractor finds connected foreground regions and keeps those that are
// roughly the size and shape of a standing person.
type BlobExtractor struct {
	MinArea   float64
	MaxArea   float64
	MinAspect float64
	MaxAspect float64
}

func NewBlobExtractor(settings models.MotionSettings) BlobExtractor {
	return BlobExtractor{
		MinArea:   settings.MinArea,
		MaxArea:   settings.MaxArea,
		MinAspect: settings.MinAspect,
		MaxAspect: settings.MaxAspect,
	}
}

// Qualifies applies the area and height/width filters to one contour.
func (e BlobExtractor) Qualifies(area float64, rect image.Rectangle) bool {
	if area < e.MinArea || area > e.MaxArea {
		return false
	}
	width := rect.Dx()
	if width <= 0 {
		return false
	}
	aspect := float64(rect.Dy()) / float64(width)
	return aspect >= e.MinAspect && aspect <= e.MaxAspect
}

// Extract returns the bounding boxes of all qualifying external contours of
// a binary mask. The order of the boxes carries no meaning.
func (e BlobExtractor) Extract(mask gocv.Mat) []models.MotionBox {
	if mask.Empty() || gocv.CountNonZero(mask) == 0 {
		return nil
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var boxes []models.MotionBox
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		rect := gocv.BoundingRect(contour)
		if !e.Qualifies(area, rect) {
			continue
		}
		boxes = append(boxes, models.MotionBox{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
			Area:   area,
		})
	}
	return boxes
}
