// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package composite resolves image transparency onto a solid background.
// Every image persisted by the pipeline passes through here so the backing
// file is always fully opaque; dark-themed Markdown viewers render raw
// transparency as black, which defeats the image's purpose.
package composite

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

// background is the fixed backdrop color every image is flattened onto.
var background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Composite draws src onto an opaque background canvas of the same size,
// using the source alpha as a per-pixel blend weight. When mask is non-nil
// it supplies the alpha channel instead; a mask whose dimensions differ
// from the image is resampled to match before use.
func Composite(src image.Image, mask image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if mask != nil {
		src = withAlpha(src, resampleMask(mask, b.Dx(), b.Dy()))
		b = src.Bounds()
	}

	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// withAlpha combines the color channels of src with a grayscale alpha mask
// of identical dimensions.
func withAlpha(src image.Image, mask *image.Gray) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			c.A = mask.GrayAt(x, y).Y
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// resampleMask converts mask to a single-channel image of the given size.
// Mismatched dimensions are reconciled here rather than failing; Catmull-Rom
// keeps soft edges smooth when the mask was stored at a different resolution
// than the image it applies to.
func resampleMask(mask image.Image, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	mb := mask.Bounds()
	if mb.Dx() == w && mb.Dy() == h {
		draw.Draw(out, out.Bounds(), mask, mb.Min, draw.Src)
		return out
	}
	xdraw.CatmullRom.Scale(out, out.Bounds(), mask, mb, xdraw.Src, nil)
	return out
}

// Decode interprets raw image bytes. PNG, JPEG, and GIF decoders are
// registered; other encodings return the image.Decode error.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// EncodePNG serializes img as PNG, the pipeline's lossless output encoding.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// Flatten is the best-effort persistence form of Composite: decode, flatten
// onto the background, re-encode as PNG. A recognized decode failure never
// aborts the page; it logs a warning and falls back to the unmodified bytes.
func Flatten(data, mask []byte, log zerolog.Logger) []byte {
	img, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("could not process image transparency, keeping original")
		return data
	}

	var maskImg image.Image
	if len(mask) > 0 {
		maskImg, err = Decode(mask)
		if err != nil {
			log.Warn().Err(err).Msg("could not decode soft mask, compositing without it")
			maskImg = nil
		}
	}

	out, err := EncodePNG(Composite(img, maskImg))
	if err != nil {
		log.Warn().Err(err).Msg("could not encode composited image, keeping original")
		return data
	}
	return out
}
