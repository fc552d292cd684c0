package analyzer

import (
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
)

// ContrastDetector finds regions with dense edges using a Sobel gradient,
// dilation to merge nearby edges, and connected components.
type ContrastDetector struct {
	MinBlockArea  int     // in source pixels
	EdgeThreshold float64 // gradient magnitude
	AnalysisSize  int     // longer side of the downscaled working copy
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
		AnalysisSize:  320,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil
	}

	gray, scale := d.workingCopy(img)
	edges := sobel(gray, d.EdgeThreshold)
	mask := dilate(edges, 2, 2)

	minArea := float64(d.MinBlockArea) * scale * scale
	var blocks []Block
	for _, c := range components(mask) {
		if float64(c.rect.Dx()*c.rect.Dy()) < minArea {
			continue
		}
		r := image.Rect(
			bounds.Min.X+int(math.Floor(float64(c.rect.Min.X)/scale)),
			bounds.Min.Y+int(math.Floor(float64(c.rect.Min.Y)/scale)),
			bounds.Min.X+int(math.Ceil(float64(c.rect.Max.X)/scale)),
			bounds.Min.Y+int(math.Ceil(float64(c.rect.Max.Y)/scale)),
		).Intersect(bounds)
		blocks = append(blocks, Block{Rect: r, Score: float64(c.pixels) / (scale * scale)})
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Score > blocks[j].Score })
	return blocks, nil
}

// workingCopy returns a grayscale copy of img no larger than AnalysisSize
// and the factor it was scaled by.
func (d *ContrastDetector) workingCopy(img image.Image) (*image.Gray, float64) {
	b := img.Bounds()
	scale := 1.0
	if d.AnalysisSize > 0 {
		if longest := max(b.Dx(), b.Dy()); longest > d.AnalysisSize {
			scale = float64(d.AnalysisSize) / float64(longest)
		}
	}
	w := max(int(math.Round(float64(b.Dx())*scale)), 1)
	h := max(int(math.Round(float64(b.Dy())*scale)), 1)
	gray := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, xdraw.Src, nil)
	return gray, scale
}

var (
	sobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobel marks pixels whose gradient magnitude exceeds threshold.
func sobel(gray *image.Gray, threshold float64) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	edges := image.NewGray(gray.Rect)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sx, sy int
			for ky := -1; ky <= 1; ky++ {
				row := (y+ky)*gray.Stride + x
				for kx := -1; kx <= 1; kx++ {
					p := int(gray.Pix[row+kx])
					sx += p * sobelX[ky+1][kx+1]
					sy += p * sobelY[ky+1][kx+1]
				}
			}
			if math.Hypot(float64(sx), float64(sy)) > threshold {
				edges.Pix[y*edges.Stride+x] = 255
			}
		}
	}
	return edges
}

// dilate grows marked pixels by radius, iterations times.
func dilate(img *image.Gray, radius, iterations int) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	cur := img
	for range iterations {
		next := image.NewGray(img.Rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if cur.Pix[y*cur.Stride+x] == 0 {
					continue
				}
				for ny := max(y-radius, 0); ny <= min(y+radius, h-1); ny++ {
					row := next.Pix[ny*next.Stride:]
					for nx := max(x-radius, 0); nx <= min(x+radius, w-1); nx++ {
						row[nx] = 255
					}
				}
			}
		}
		cur = next
	}
	return cur
}

type component struct {
	rect   image.Rectangle
	pixels int
}

// components returns the bounding box and size of every 4-connected group
// of marked pixels.
func components(mask *image.Gray) []component {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	visited := make([]bool, w*h)
	var out []component
	var stack []image.Point

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || mask.Pix[y*mask.Stride+x] == 0 {
				continue
			}
			c := component{rect: image.Rect(x, y, x+1, y+1)}
			stack = append(stack[:0], image.Point{X: x, Y: y})
			visited[y*w+x] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				c.pixels++
				c.rect = c.rect.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for _, n := range [4]image.Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
					if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
						continue
					}
					i := n.Y*w + n.X
					if !visited[i] && mask.Pix[n.Y*mask.Stride+n.X] != 0 {
						visited[i] = true
						stack = append(stack, n)
					}
				}
			}
			out = append(out, c)
		}
	}
	return out
}
