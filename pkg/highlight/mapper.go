// Package highlight maps chunk bounding boxes from PDF user space onto the
// rendered page so the viewer can draw highlight rectangles.
package highlight

import (
	"math"

	"library-assistant-be/pkg/store"
)

// Viewport describes how a page is currently rendered. PageWidth and
// PageHeight are in PDF units (unscaled). Rotation is clockwise degrees.
type Viewport struct {
	Scale      float64 `json:"scale"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Rotation   int     `json:"rotation"`
	OffsetX    float64 `json:"offset_x"`
	OffsetY    float64 `json:"offset_y"`
}

// Region is a highlight rectangle in screen pixels, top-left origin.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Map converts every box for the given viewport. It is recomputed on each
// call; callers must not reuse regions after a zoom or page change.
func Map(boxes []store.BoundingBox, vp Viewport) []Region {
	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		regions = append(regions, MapBox(b, vp))
	}
	return regions
}

// MapBox converts a single box.
func MapBox(b store.BoundingBox, vp Viewport) Region {
	x1, y1 := vp.toScreen(b.X0, b.Y0)
	x2, y2 := vp.toScreen(b.X1, b.Y1)

	return Region{
		X:      math.Min(x1, x2) + vp.OffsetX,
		Y:      math.Min(y1, y2) + vp.OffsetY,
		Width:  math.Abs(x2 - x1),
		Height: math.Abs(y2 - y1),
	}
}

func (vp Viewport) toScreen(x, y float64) (float64, float64) {
	s := vp.Scale
	if s <= 0 {
		s = 1
	}
	w, h := vp.PageWidth, vp.PageHeight

	switch normalizeRotation(vp.Rotation) {
	case 90:
		return y * s, x * s
	case 180:
		return (w - x) * s, y * s
	case 270:
		return (h - y) * s, (w - x) * s
	default:
		return x * s, (h - y) * s
	}
}

func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	if r%90 != 0 {
		return 0
	}
	return r
}
