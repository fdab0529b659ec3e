package imaging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-multierror"

	"github.com/ironsheep/image-views/internal/raster"
)

// Entry is a named image, as listed by a gallery or an export.
type Entry struct {
	Name  string
	Image *raster.Image
}

// Save writes img to path. The format follows the extension: .png, .jpg,
// .jpeg, .gif, .bmp, .tif or .tiff.
func Save(img *raster.Image, path string) error {
	if img == nil || img.Empty() {
		return fmt.Errorf("%w: nothing to save to %s", ErrIOFailure, path)
	}
	if err := imaging.Save(img.ToNRGBA(), path); err != nil {
		return fmt.Errorf("%w: failed to save %s: %w", ErrIOFailure, path, err)
	}
	return nil
}

// SaveAll writes every entry to dir as <name>.<ext>, creating dir if needed.
// All entries are attempted; the returned error lists every failure.
func SaveAll(entries []Entry, dir, ext string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", ErrIOFailure, dir, err)
	}

	var result *multierror.Error
	written := make([]string, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name+"."+ext)
		if err := Save(e.Image, path); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		written = append(written, path)
	}
	return written, result.ErrorOrNil()
}

// SaveGallery builds the contact sheet of entries and writes it to path.
func SaveGallery(entries []Entry, opts GalleryOptions, path string) error {
	sheet, err := Gallery(entries, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(sheet, path); err != nil {
		return fmt.Errorf("%w: failed to save %s: %w", ErrIOFailure, path, err)
	}
	return nil
}
