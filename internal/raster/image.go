package raster

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// GrayFromImage converts an image into a grayscale raster.
func GrayFromImage(img image.Image) *Gray {
	if img == nil {
		return &Gray{}
	}
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	out := NewGray(b.Dx(), b.Dy())
	if out.Empty() {
		return out
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			// RGBA with R==G==B after Grayscale; take R.
			i := gray.PixOffset(b.Min.X+x, b.Min.Y+y)
			out.pix[y*out.w+x] = gray.Pix[i]
		}
	}
	return out
}

// Downsample resizes an image by 1/scale in each dimension using a
// box filter. Scale 1 (or less) returns the input unchanged.
func Downsample(img image.Image, scale int) image.Image {
	if img == nil || scale <= 1 {
		return img
	}
	b := img.Bounds()
	w := b.Dx() / scale
	h := b.Dy() / scale
	if w < 1 || h < 1 {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Box)
}

// GridFromImage converts an image to a binary grid via Otsu
// thresholding. Pixels darker than the threshold become foreground,
// matching ink-on-paper input.
func GridFromImage(img image.Image) *Grid {
	gray := GrayFromImage(img)
	return gray.Binarize(OtsuThreshold(gray), true)
}
