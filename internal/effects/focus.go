package effects

import (
	"fmt"
	"image"
	"math"
)

// Focus is a point of the output frame, as fractions of its width and
// height, and the zoom that frames the subject around it.
type Focus struct {
	X, Y float64
	Zoom float64
}

// expr returns the zoompan offset that centres the window on frac of dim,
// clamped to the frame.
func (f *Focus) expr(dim string, frac float64) string {
	return fmt.Sprintf("max(0,min(%s-%s/zoom,%.4f*%s-%s/zoom/2))", dim, dim, frac, dim, dim)
}

// FocusOn maps subject, a region of a slide with bounds src, onto a
// width x height frame that letterboxes the slide, and picks a zoom that
// fits the subject into 90% of the frame.
func FocusOn(src, subject image.Rectangle, width, height int) Focus {
	if src.Empty() || width <= 0 || height <= 0 {
		return Focus{X: 0.5, Y: 0.5, Zoom: 1}
	}
	scale := math.Min(float64(width)/float64(src.Dx()), float64(height)/float64(src.Dy()))
	offX := (float64(width) - float64(src.Dx())*scale) / 2
	offY := (float64(height) - float64(src.Dy())*scale) / 2

	subject = subject.Intersect(src)
	cx := float64(subject.Min.X-src.Min.X) + float64(subject.Dx())/2
	cy := float64(subject.Min.Y-src.Min.Y) + float64(subject.Dy())/2

	f := Focus{
		X:    (offX + cx*scale) / float64(width),
		Y:    (offY + cy*scale) / float64(height),
		Zoom: 1,
	}

	blockW := float64(subject.Dx()) * scale
	blockH := float64(subject.Dy()) * scale
	if blockW > 0 && blockH > 0 {
		zoom := math.Min(0.9*float64(width)/blockW, 0.9*float64(height)/blockH)
		f.Zoom = math.Max(1, math.Min(zoom, 3))
	}
	return f
}
