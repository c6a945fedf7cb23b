// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes uploaded images and produces the resized AVIF and
// JPEG variants plus the inline blur placeholder.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/jpegli"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/jknm/novice/internal/model"
)

var (
	// ErrNotImage means the data has no readable image dimensions.
	ErrNotImage = errors.New("not a decodable image")
	// ErrTooLarge guards against decompression bombs.
	ErrTooLarge = errors.New("image exceeds pixel limit")
)

// MaxPixels is the largest original the pipeline will decode.
const MaxPixels = 80_000_000

// Encoding policy.
const (
	avifQuality = 75
	// libavif speed 3 corresponds to an encoder effort of 6 on a 0..9 scale.
	avifSpeed   = 3
	jpegQuality = 85
	// JPEG variants are progressive with optimized Huffman tables.
	jpegProgressiveLevel = 2
)

// Blur placeholder policy.
const (
	blurWidth   = 40
	blurSigma   = 2.5
	blurQuality = 40
	blurDataURI = "data:image/jpeg;base64,"
)

// Decode decodes data, applies the EXIF orientation and returns the upright image.
// Data without readable dimensions (PDF, audio, unsupported formats) yields ErrNotImage.
func Decode(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	// TIFF is rejected (CVE-2023-36308 in disintegration/imaging).
	if format == "tiff" || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrNotImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return applyOrientation(img, readExifOrientation(bytes.NewReader(data))), nil
}

// Resize fits img inside width, preserving the aspect ratio. Images already
// narrower than width are returned unchanged; the pipeline never upscales.
func Resize(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Encode encodes img with the fixed parameters for format.
func Encode(img image.Image, format model.VariantFormat) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case model.VariantFormatAVIF:
		if err := avif.Encode(&buf, img, avif.Options{
			Quality:           avifQuality,
			QualityAlpha:      avifQuality,
			Speed:             avifSpeed,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		}); err != nil {
			return nil, fmt.Errorf("encoding avif: %w", err)
		}
	case model.VariantFormatJPEG:
		if err := jpegli.Encode(&buf, flatten(img), &jpegli.EncodingOptions{
			Quality:           jpegQuality,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
			ProgressiveLevel:  jpegProgressiveLevel,
			OptimizeCoding:    true,
		}); err != nil {
			return nil, fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported variant format %q", format)
	}

	return buf.Bytes(), nil
}

// Blur returns a tiny, heavily blurred low-quality JPEG of img.
func Blur(img image.Image) ([]byte, error) {
	small := Resize(img, blurWidth)
	blurred := imaging.Blur(small, blurSigma)

	var buf bytes.Buffer
	if err := jpegli.Encode(&buf, flatten(blurred), &jpegli.EncodingOptions{
		Quality:           blurQuality,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
		OptimizeCoding:    true,
	}); err != nil {
		return nil, fmt.Errorf("encoding blur placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// BlurDataURI inlines JPEG bytes produced by Blur as a data URI.
func BlurDataURI(data []byte) string {
	return blurDataURI + base64.StdEncoding.EncodeToString(data)
}

// BlurPlaceholder returns the blur preview of img as a data URI.
func BlurPlaceholder(img image.Image) (string, error) {
	data, err := Blur(img)
	if err != nil {
		return "", err
	}
	return BlurDataURI(data), nil
}

// flatten composites transparent pixels onto white so JPEG output of PNG
// and WebP sources does not turn transparent areas black.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), image.White.C)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
