package computervision

import (
	"image"

	"gocv.io/x/gocv"
)

// ForegroundCleaner removes speckle noise from a foreground mask. It first
// closes the mask (fills small holes inside blobs) and then opens it
// (drops isolated specks).
type ForegroundCleaner struct {
	kernel gocv.Mat
}

func NewForegroundCleaner(kernelSize int) *ForegroundCleaner {
	if kernelSize <= 0 {
		kernelSize = 5
	}
	return &ForegroundCleaner{
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(kernelSize, kernelSize)),
	}
}

// Clean returns a new cleaned mask, the input is left untouched.
func (c *ForegroundCleaner) Clean(mask gocv.Mat) gocv.Mat {
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(mask, &closed, gocv.MorphClose, c.kernel)

	opened := gocv.NewMat()
	gocv.MorphologyEx(closed, &opened, gocv.MorphOpen, c.kernel)
	return opened
}

func (c *ForegroundCleaner) Close() {
	c.kernel.Close()
}
