package ocr

import (
	"context"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Thorough is the slow last-resort recognition pass: the image is converted
// to grayscale, contrast stretched and upscaled before a sparse-text LSTM run.
type Thorough struct {
	next   TextExtractor
	scale  int
	preset Preset
}

func NewThorough(next TextExtractor) *Thorough {
	return &Thorough{next: next, scale: 2, preset: ThoroughPreset}
}

// Recognize runs the enhanced pass over img.
func (t *Thorough) Recognize(ctx context.Context, img image.Image) (string, error) {
	return t.next.ExtractText(ctx, Enhance(img, t.scale), t.preset)
}

// Enhance returns a grayscale, contrast-stretched copy of img scaled by factor.
func Enhance(img image.Image, factor int) image.Image {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	stretchContrast(gray)

	if factor <= 1 {
		return gray
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)
	return dst
}

func stretchContrast(g *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range g.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	span := int(hi) - int(lo)
	for i, p := range g.Pix {
		g.Pix[i] = uint8((int(p) - int(lo)) * 255 / span)
	}
}
