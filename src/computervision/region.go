package computervision

import (
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	geo "github.com/kellydunn/golang-geo"
)

// Region limits motion to a set of polygons drawn on the processing
// resolution. A nil or empty Region accepts every box.
type Region struct {
	polygons []*geo.Polygon
}

func NewRegion(region *models.Region) *Region {
	r := &Region{}
	if region == nil {
		return r
	}
	for _, polygon := range region.Polygon {
		if len(polygon.Coordinates) < 3 {
			continue
		}
		poly := geo.Polygon{}
		for _, c := range polygon.Coordinates {
			poly.Add(geo.NewPoint(c.X, c.Y))
		}
		r.polygons = append(r.polygons, &poly)
	}
	return r
}

func (r *Region) Empty() bool {
	return r == nil || len(r.polygons) == 0
}

// Contains reports whether the centre of box lies inside one of the polygons.
func (r *Region) Contains(box models.MotionBox) bool {
	if r.Empty() {
		return true
	}
	x, y := box.Center()
	point := geo.NewPoint(x, y)
	for _, polygon := range r.polygons {
		if polygon.Contains(point) {
			return true
		}
	}
	return false
}

// Filter keeps the boxes inside the region.
func (r *Region) Filter(boxes []models.MotionBox) []models.MotionBox {
	if r.Empty() {
		return boxes
	}
	var kept []models.MotionBox
	for _, box := range boxes {
		if r.Contains(box) {
			kept = append(kept, box)
		}
	}
	return kept
}
