package fingerprint

import "image"

// grayPlane is an 8-bit luminance plane with a summed-area table for box
// smoothing.
type grayPlane struct {
	w, h     int
	pix      []uint8
	integral []uint32
}

// newGrayPlane converts an RGBA image with ITU-R BT.601 luma weights.
func newGrayPlane(img *image.RGBA) *grayPlane {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	g := &grayPlane{w: w, h: h, pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			r, gr, bl := uint32(row[x*4]), uint32(row[x*4+1]), uint32(row[x*4+2])
			g.pix[y*w+x] = uint8((299*r + 587*gr + 114*bl + 500) / 1000)
		}
	}
	g.buildIntegral()
	return g
}

func (g *grayPlane) at(x, y int) int {
	return int(g.pix[y*g.w+x])
}

func (g *grayPlane) buildIntegral() {
	stride := g.w + 1
	g.integral = make([]uint32, stride*(g.h+1))
	for y := 0; y < g.h; y++ {
		var rowSum uint32
		for x := 0; x < g.w; x++ {
			rowSum += uint32(g.pix[y*g.w+x])
			g.integral[(y+1)*stride+x+1] = g.integral[y*stride+x+1] + rowSum
		}
	}
}

// boxSum returns the sum of the (2r+1)^2 box centred on (x, y). Callers
// keep the box inside the plane.
func (g *grayPlane) boxSum(x, y, r int) uint32 {
	stride := g.w + 1
	x0, y0, x1, y1 := x-r, y-r, x+r+1, y+r+1
	return g.integral[y1*stride+x1] - g.integral[y0*stride+x1] - g.integral[y1*stride+x0] + g.integral[y0*stride+x0]
}

func (g *grayPlane) image() *image.Gray {
	return &image.Gray{Pix: g.pix, Stride: g.w, Rect: image.Rect(0, 0, g.w, g.h)}
}
