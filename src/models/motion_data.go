package models

import "image"

// MotionBox is the bounding rectangle of one detected blob together with
// the area of its contour in pixels.
type MotionBox struct {
	X      int     `json:"x" bson:"x"`
	Y      int     `json:"y" bson:"y"`
	Width  int     `json:"width" bson:"width"`
	Height int     `json:"height" bson:"height"`
	Area   float64 `json:"area" bson:"area"`
}

func (b MotionBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

func (b MotionBox) Center() (float64, float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// LargestArea returns the biggest area of the given boxes, 0 when empty.
func LargestArea(boxes []MotionBox) float64 {
	largest := 0.0
	for _, b := range boxes {
		if b.Area > largest {
			largest = b.Area
		}
	}
	return largest
}
