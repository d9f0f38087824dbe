// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grayscale converts PNG images to grayscale using BT.709 luma
// weights while leaving the alpha channel untouched.
package grayscale

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"

	"github.com/pdiddy/grayscaler/pkg/types"
)

// ITU-R BT.709 luma coefficients.
const (
	WeightR = 0.2126
	WeightG = 0.7152
	WeightB = 0.0722
)

// Result describes one completed conversion.
type Result struct {
	Input  string
	Output string
	Width  int
	Height int
}

// Luma returns round(0.2126r + 0.7152g + 0.0722b).
func Luma(r, g, b uint8) uint8 {
	y := math.Round(WeightR*float64(r) + WeightG*float64(g) + WeightB*float64(b))
	if y > 255 {
		return 255
	}
	return uint8(y)
}

// Apply replaces the R, G and B samples of every pixel in img with the
// pixel's luma. Alpha is left as is.
func Apply(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			gray := Luma(row[i], row[i+1], row[i+2])
			row[i], row[i+1], row[i+2] = gray, gray, gray
		}
	}
}

// ToNRGBA returns img as a non-premultiplied RGBA buffer. *image.NRGBA
// inputs are returned unchanged; anything else is copied.
//
// Paletted and 16-bit non-premultiplied sources are copied sample by sample.
// Going through premultiplied RGBA would round away the colour of pixels
// with very low alpha.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.NRGBA:
		return src
	case *image.Paletted:
		dst := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.SetNRGBA(x, y, color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA))
			}
		}
		return dst
	case *image.NRGBA64:
		dst := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.NRGBA64At(x, y)
				dst.SetNRGBA(x, y, color.NRGBA{
					R: uint8(c.R >> 8),
					G: uint8(c.G >> 8),
					B: uint8(c.B >> 8),
					A: uint8(c.A >> 8),
				})
			}
		}
		return dst
	}
	dst := image.NewNRGBA(b)
	draw.Copy(dst, b.Min, img, b, draw.Src, nil)
	return dst
}

// ToGrayscale reads the PNG at inputPath, converts it to grayscale and
// writes the result as a PNG to outputPath, creating missing parent
// directories. The output is written to a temporary file next to
// outputPath and renamed into place once it has been synced and closed.
func ToGrayscale(fsys afero.Fs, inputPath, outputPath string) (*Result, error) {
	img, err := decode(fsys, inputPath)
	if err != nil {
		return nil, err
	}

	Apply(img)

	if err := encode(fsys, img, outputPath); err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Result{
		Input:  inputPath,
		Output: outputPath,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

func decode(fsys afero.Fs, path string) (*image.NRGBA, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, types.NewStageError(types.ErrDecode, path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, types.NewStageError(types.ErrDecode, path, err)
	}
	return ToNRGBA(img), nil
}

func encode(fsys afero.Fs, img image.Image, path string) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return types.NewStageError(types.ErrDirectoryCreation, dir, err)
	}

	tmp, err := afero.TempFile(fsys, dir, ".gray-*.png.tmp")
	if err != nil {
		return types.NewStageError(types.ErrWrite, path, fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()

	encErr := png.Encode(tmp, img)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if err := errors.Join(encErr, syncErr, closeErr, fsys.Chmod(tmpPath, 0o644)); err != nil {
		fsys.Remove(tmpPath)
		return types.NewStageError(types.ErrWrite, path, err)
	}

	if err := fsys.Rename(tmpPath, path); err != nil {
		fsys.Remove(tmpPath)
		return types.NewStageError(types.ErrWrite, path, err)
	}
	return nil
}
