package ocr

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"io"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropTop returns the upper fraction of img. The source image is not modified;
// for the standard image types the result shares its pixels.
func CropTop(img image.Image, fraction float64) image.Image {
	b := img.Bounds()
	if fraction <= 0 || fraction >= 1 {
		return img
	}
	h := int(float64(b.Dy()) * fraction)
	if h < 1 {
		h = 1
	}
	r := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+h)
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// EncodePNG writes img as PNG, favouring speed over size.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// PNGBytes encodes img to an in-memory PNG.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
