// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grayscale

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/grayscaler/pkg/types"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func readNRGBA(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return ToNRGBA(img)
}

// fixture returns the 2x2 image
//
//	(255,0,0,255) (0,255,0,128)
//	(0,0,255,0)   (10,20,30,255)
func fixture() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 128})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 0})
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	return img
}

func TestLuma(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    uint8
	}{
		{255, 0, 0, 54},
		{0, 255, 0, 182},
		{0, 0, 255, 18},
		{10, 20, 30, 19},
		{0, 0, 0, 0},
		{255, 255, 255, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Luma(tt.r, tt.g, tt.b), "Luma(%d,%d,%d)", tt.r, tt.g, tt.b)
	}
}

func TestLuma_GrayIsFixedPoint(t *testing.T) {
	for v := 0; v <= 255; v++ {
		g := uint8(v)
		require.Equal(t, g, Luma(g, g, g), "gray %d", v)
	}
}

func TestToGrayscale_Fixture(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.png")
	out := filepath.Join(tmp, "gray_in.png")
	writePNG(t, in, fixture())

	res, err := ToGrayscale(afero.NewOsFs(), in, out)
	require.NoError(t, err)
	assert.Equal(t, &Result{Input: in, Output: out, Width: 2, Height: 2}, res)

	got := readNRGBA(t, out)
	want := []struct {
		x, y       int
		gray, alph uint8
	}{
		{0, 0, 54, 255},
		{1, 0, 182, 128},
		{0, 1, 18, 0},
		{1, 1, 19, 255},
	}
	for _, w := range want {
		c := got.NRGBAAt(w.x, w.y)
		assert.Equal(t, color.NRGBA{R: w.gray, G: w.gray, B: w.gray, A: w.alph}, c, "pixel (%d,%d)", w.x, w.y)
	}
}

func TestToGrayscale_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.png")
	once := filepath.Join(tmp, "once.png")
	twice := filepath.Join(tmp, "twice.png")
	writePNG(t, in, fixture())

	fsys := afero.NewOsFs()
	_, err := ToGrayscale(fsys, in, once)
	require.NoError(t, err)
	_, err = ToGrayscale(fsys, once, twice)
	require.NoError(t, err)

	a, err := os.ReadFile(once)
	require.NoError(t, err)
	b, err := os.ReadFile(twice)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestToGrayscale_PreservesDimensions(t *testing.T) {
	sources := map[string]image.Image{
		"nrgba": image.NewNRGBA(image.Rect(0, 0, 7, 3)),
		"rgba":  image.NewRGBA(image.Rect(0, 0, 1, 9)),
		"gray":  image.NewGray(image.Rect(0, 0, 5, 5)),
		"rgb16": image.NewNRGBA64(image.Rect(0, 0, 4, 2)),
		"paletted": image.NewPaletted(image.Rect(0, 0, 3, 6), color.Palette{
			color.Black, color.White, color.NRGBA{R: 200, G: 10, B: 10, A: 255},
		}),
		"paletted translucent": translucentPalette(),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()
			in := filepath.Join(tmp, name+".png")
			out := filepath.Join(tmp, "gray_"+name+".png")
			writePNG(t, in, src)

			res, err := ToGrayscale(afero.NewOsFs(), in, out)
			require.NoError(t, err)

			got := readNRGBA(t, out)
			assert.Equal(t, src.Bounds().Dx(), got.Bounds().Dx())
			assert.Equal(t, src.Bounds().Dy(), got.Bounds().Dy())
			assert.Equal(t, got.Bounds().Dx(), res.Width)
			assert.Equal(t, got.Bounds().Dy(), res.Height)

			for i := 0; i < len(got.Pix); i += 4 {
				require.Equal(t, got.Pix[i], got.Pix[i+1])
				require.Equal(t, got.Pix[i], got.Pix[i+2])
			}
		})
	}
}

// translucentPalette returns a 3x1 paletted image whose entries carry
// near-zero alpha, as written by a PNG with a tRNS chunk.
func translucentPalette() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 3, 1), color.Palette{
		color.NRGBA{R: 200, G: 100, B: 50, A: 3},
		color.NRGBA{R: 10, G: 20, B: 30, A: 1},
		color.NRGBA{R: 255, A: 20},
	})
	img.Pix = []uint8{0, 1, 2}
	return img
}

func TestToGrayscale_TranslucentPaletteKeepsColour(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "palette.png")
	out := filepath.Join(tmp, "gray_palette.png")
	writePNG(t, in, translucentPalette())

	_, err := ToGrayscale(afero.NewOsFs(), in, out)
	require.NoError(t, err)

	got := readNRGBA(t, out)
	want := []color.NRGBA{
		{R: 118, G: 118, B: 118, A: 3},
		{R: 19, G: 19, B: 19, A: 1},
		{R: 54, G: 54, B: 54, A: 20},
	}
	for x, w := range want {
		assert.Equal(t, w, got.NRGBAAt(x, 0), "pixel %d", x)
	}
}

func TestToNRGBA_NRGBA64(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(0, 0, 1, 1))
	src.SetNRGBA64(0, 0, color.NRGBA64{R: 0x0a0a, G: 0x1414, B: 0x1e1e, A: 0x0101})

	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 1}, ToNRGBA(src).NRGBAAt(0, 0))
}

func TestToGrayscale_CreatesParentDirectories(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.png")
	out := filepath.Join(tmp, "a", "b", "gray_in.png")
	writePNG(t, in, fixture())

	_, err := ToGrayscale(afero.NewOsFs(), in, out)
	require.NoError(t, err)
	assert.FileExists(t, out)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestToGrayscale_Failures(t *testing.T) {
	tmp := t.TempDir()
	corrupt := filepath.Join(tmp, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("\x89PNG not really"), 0o644))

	tests := []struct {
		name   string
		input  string
		wantIs []error
	}{
		{name: "missing input", input: filepath.Join(tmp, "missing.png"), wantIs: []error{types.ErrDecode, fs.ErrNotExist}},
		{name: "corrupt input", input: corrupt, wantIs: []error{types.ErrDecode}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(tmp, "out", "gray.png")
			res, err := ToGrayscale(afero.NewOsFs(), tt.input, out)
			require.Error(t, err)
			assert.Nil(t, res)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, err, target)
			}
			assert.Equal(t, tt.input, types.FailedPath(err))
			assert.NoFileExists(t, out)
		})
	}
}

func TestToGrayscale_ReadOnlyOutput(t *testing.T) {
	fsys := afero.NewMemMapFs()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, fixture()))
	require.NoError(t, afero.WriteFile(fsys, "/in/a.png", buf.Bytes(), 0o644))

	ro := afero.NewReadOnlyFs(fsys)
	_, err := ToGrayscale(ro, "/in/a.png", "/out/gray_a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDirectoryCreation)
}

func TestApply_SubImage(t *testing.T) {
	img := fixture()
	sub := img.SubImage(image.Rect(1, 1, 2, 2)).(*image.NRGBA)
	Apply(sub)

	assert.Equal(t, color.NRGBA{R: 19, G: 19, B: 19, A: 255}, img.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 0), "pixels outside the sub-image are untouched")
}

// renameFailFs refuses every rename so the final publish step fails.
type renameFailFs struct {
	afero.Fs
}

func (renameFailFs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: fs.ErrPermission}
}

func TestToGrayscale_WriteFailure(t *testing.T) {
	mem := afero.NewMemMapFs()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, fixture()))
	require.NoError(t, afero.WriteFile(mem, "/in/a.png", buf.Bytes(), 0o644))
	require.NoError(t, mem.MkdirAll("/out", 0o755))

	out := "/out/gray_a.png"
	res, err := ToGrayscale(renameFailFs{mem}, "/in/a.png", out)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrWrite)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, out, types.FailedPath(err))

	entries, err := afero.ReadDir(mem, "/out")
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file removed after a failed write")
}
