package classify

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Header model input, as trained: top quarter of the page, 620x219.
const (
	DefaultInputWidth  = 620
	DefaultInputHeight = 219
)

// HeaderTensor crops the top quarter of img, resizes it to w x h and returns
// it as [h][w][channels] values in 0..1. channels is 1 (grayscale) or 3 (RGB).
func HeaderTensor(img image.Image, w, h, channels int) [][][]float32 {
	b := img.Bounds()
	top := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+max(b.Dy()/4, 1))

	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, top, xdraw.Src, nil)

	out := make([][][]float32, h)
	for y := 0; y < h; y++ {
		row := make([][]float32, w)
		for x := 0; x < w; x++ {
			i := resized.PixOffset(x, y)
			r, g, bl := resized.Pix[i], resized.Pix[i+1], resized.Pix[i+2]
			if channels == 1 {
				// ITU-R 601-2 luma, the same transform as an "L" conversion
				l := (299*int(r) + 587*int(g) + 114*int(bl)) / 1000
				row[x] = []float32{float32(l) / 255}
				continue
			}
			row[x] = []float32{float32(r) / 255, float32(g) / 255, float32(bl) / 255}
		}
		out[y] = row
	}
	return out
}
