package processor

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Extra decoders beyond the jpeg/png/gif/bmp/tiff set imaging registers.
	_ "golang.org/x/image/webp"
)

// decodeImage sniffs the format from content, never from the file name, and
// applies the EXIF orientation so rotated photos come out upright.
func (p *ImageProcessor) decodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
