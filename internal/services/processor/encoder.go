package processor

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/chai2010/webp"
)

// writeWebP encodes img to path and returns the number of bytes written. A
// partially written file is removed on failure.
func (p *ImageProcessor) writeWebP(path string, img image.Image) (size int64, rerr error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if rerr != nil {
			dst.Close()
			rerr = errors.Join(rerr, os.Remove(path))
		}
	}()

	w := bufio.NewWriter(dst)
	if err := webp.Encode(w, img, &webp.Options{Lossless: p.opts.Lossless, Quality: p.opts.Quality}); err != nil {
		return 0, fmt.Errorf("failed to encode webp: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write output: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync output: %w", err)
	}

	info, err := dst.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat output: %w", err)
	}
	if err := dst.Close(); err != nil {
		return 0, fmt.Errorf("failed to close output: %w", err)
	}

	return info.Size(), nil
}
