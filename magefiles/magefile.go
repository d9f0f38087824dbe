//go:build mage

// Package main contains Mage build targets for grayscaler developer tooling.
package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// workDirs lists the directories a run writes images into. Clean removes them.
var workDirs = []string{
	"unzipped",
	"grayscaled",
}

// stateDir holds the ledger and secrets. Init creates it; Clean never touches it.
const stateDir = ".grayscaler"

// Init creates the default working directories.
func Init() error {
	for _, dir := range append(workDirs, stateDir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir     = "bin"
	binName    = "grayscaler"
	cmdPkg     = "./cmd/grayscaler"
	sampleName = "myfile.zip"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Sample writes myfile.zip with a few colour PNGs and one non-image entry.
func Sample() error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	swatches := map[string]color.NRGBA{
		"red.png":         {R: 255, A: 255},
		"green.png":       {G: 255, A: 255},
		"sky.PNG":         {R: 90, G: 160, B: 230, A: 200},
		"nested/blue.png": {B: 255, A: 255},
	}
	for name, c := range swatches {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if err := png.Encode(w, gradient(64, 48, c)); err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
	}
	w, err := zw.Create("notes.txt")
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("not an image\n")); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := os.WriteFile(sampleName, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", sampleName, err)
	}
	fmt.Printf("Wrote %s (%d entries)\n", sampleName, len(swatches)+1)
	return nil
}

// Demo builds the binary, writes the sample archive and runs the pipeline on it.
func Demo() error {
	mg.Deps(Build, Sample)
	return sh.RunV(filepath.Join(binDir, binName), "run", "--archive", sampleName)
}

// Clean removes build output and the default image directories. The ledger
// and secrets under .grayscaler are kept.
func Clean() error {
	for _, p := range append([]string{binDir, sampleName}, workDirs...) {
		if err := sh.Rm(p); err != nil {
			return err
		}
	}
	return sh.Rm("grayscaled.lock")
}

// Stats prints Go production and test line counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// gradient fades c from full strength on the left to a quarter on the right.
func gradient(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		f := 1 - 0.75*float64(x)/float64(w-1)
		px := color.NRGBA{
			R: uint8(float64(c.R) * f),
			G: uint8(float64(c.G) * f),
			B: uint8(float64(c.B) * f),
			A: c.A,
		}
		for y := 0; y < h; y++ {
			img.SetNRGBA(x, y, px)
		}
	}
	return img
}

// countGoLines walks the tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), "_") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if isTest := strings.HasSuffix(path, "_test.go"); isTest != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}
