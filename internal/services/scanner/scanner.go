// Package scanner walks a source tree and streams the image files found in it.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phambaophuc/imgbatch/internal/models"
	"github.com/phambaophuc/imgbatch/pkg/utils"
	"go.uber.org/zap"
)

type Scanner struct {
	extensions []string
	logger     *zap.Logger
}

func NewScanner(extensions []string, logger *zap.Logger) *Scanner {
	return &Scanner{
		extensions: extensions,
		logger:     logger,
	}
}

// Scan walks root in a background goroutine and sends every regular file
// with an accepted extension on the returned channel. Unreadable entries are
// skipped. The channel is closed when the walk finishes or ctx is done.
func (s *Scanner) Scan(ctx context.Context, root string) <-chan models.SourceItem {
	items := make(chan models.SourceItem)

	go func() {
		defer close(items)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			s.logger.Warn("Cannot resolve source root", zap.String("root", root), zap.Error(err))
			return
		}

		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if err != nil {
				s.logger.Debug("Skipping unreadable entry", zap.String("path", path), zap.Error(err))
				return nil
			}
			if d.IsDir() {
				return nil
			}

			ext, ok := utils.HasExtension(d.Name(), s.extensions)
			if !ok || !s.isRegular(path, d) {
				return nil
			}

			select {
			case items <- models.SourceItem{Path: path, Root: absRoot, Ext: ext}:
				return nil
			case <-ctx.Done():
				return fs.SkipAll
			}
		})
		if walkErr != nil {
			s.logger.Warn("Source walk stopped", zap.String("root", absRoot), zap.Error(walkErr))
		}
	}()

	return items
}

// isRegular follows symlinks so that links to image files are processed and
// broken links are dropped.
func (s *Scanner) isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("Skipping broken symlink", zap.String("path", path), zap.Error(err))
		return false
	}
	return info.Mode().IsRegular()
}

// Collect drains the channel returned by Scan.
func Collect(items <-chan models.SourceItem) []models.SourceItem {
	var out []models.SourceItem
	for item := range items {
		out = append(out, item)
	}
	return out
}
