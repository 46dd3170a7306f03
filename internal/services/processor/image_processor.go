package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/phambaophuc/imgbatch/internal/models"
	"github.com/phambaophuc/imgbatch/pkg/utils"
)

const (
	DefaultQuality = 80
)

// Options controls the WebP output. A zero Quality selects DefaultQuality;
// configured values are validated to 1..100 before they get here.
type Options struct {
	Quality      float32
	Lossless     bool
	MaxDimension int
}

// ImageProcessor converts source images into WebP files next to the
// originals. It holds only read-only options and is safe for concurrent use.
type ImageProcessor struct {
	opts Options
}

func NewImageProcessor(opts Options) *ImageProcessor {
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	return &ImageProcessor{opts: opts}
}

// Convert decodes item and writes its WebP rendition to the sibling path with
// the extension replaced. The source file is only ever opened for reading.
func (p *ImageProcessor) Convert(ctx context.Context, item models.SourceItem) (*models.ConvertedArtifact, error) {
	src, err := os.Open(item.Path)
	if err != nil {
		return nil, models.NewStageError(models.StageScan, item.Path, err)
	}
	defer src.Close()

	img, err := p.decodeImage(src)
	if err != nil {
		return nil, models.NewStageError(models.StageDecode, item.Path, err)
	}

	if p.opts.MaxDimension > 0 {
		img = p.fitImage(img, p.opts.MaxDimension)
	}

	outputPath := utils.ReplaceExt(item.Path, models.FormatWebP)
	if outputPath == item.Path {
		return nil, models.NewStageError(models.StageEncode, item.Path,
			fmt.Errorf("output path %s would overwrite the source", outputPath))
	}

	size, err := p.writeWebP(outputPath, img)
	if err != nil {
		return nil, models.NewStageError(models.StageEncode, outputPath, err)
	}

	return &models.ConvertedArtifact{
		SourcePath: item.Path,
		OutputPath: outputPath,
		Size:       size,
		Format:     models.FormatWebP,
	}, nil
}
