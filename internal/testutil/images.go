// Package testutil provides fixtures and fakes shared by package tests.
package testutil

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewImage returns a w x h gradient so encoders have some content to work on.
func NewImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: 128, A: 255})
		}
	}
	return img
}

func WritePNG(t testing.TB, path string, w, h int) string {
	t.Helper()
	return writeImage(t, path, func(f io.Writer) error { return png.Encode(f, NewImage(w, h)) })
}

func WriteJPEG(t testing.TB, path string, w, h int) string {
	t.Helper()
	return writeImage(t, path, func(f io.Writer) error {
		return jpeg.Encode(f, NewImage(w, h), &jpeg.Options{Quality: 90})
	})
}

func WriteGIF(t testing.TB, path string, w, h int) string {
	t.Helper()
	return writeImage(t, path, func(f io.Writer) error { return gif.Encode(f, NewImage(w, h), nil) })
}

// WriteRaw writes data verbatim, for corrupted or non-image fixtures.
func WriteRaw(t testing.TB, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeImage(t testing.TB, path string, encode func(io.Writer) error) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f))
	return path
}
