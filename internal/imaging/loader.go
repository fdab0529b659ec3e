package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/image-views/internal/raster"
)

// ErrIOFailure is returned when an image file cannot be read, decoded or
// written.
var ErrIOFailure = errors.New("image io failure")

// Cache keeps recently decoded image files in memory, keyed by the exact path
// string given to Load. The least recently used file is dropped once the
// cache holds size entries.
//
// Cache is safe for concurrent use.
//
//	cache, err := imaging.NewCache(16)
//	if err != nil {
//	    return err
//	}
//	src, err := cache.Raster("/path/to/image.png")
type Cache struct {
	files *lru.Cache
}

// NewCache creates a cache holding at most size decoded files.
func NewCache(size int) (*Cache, error) {
	files, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		log.WithField("path", key).Debug("evicted decoded image")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache of size %d: %w", size, err)
	}
	return &Cache{files: files}, nil
}

// Load returns the decoded image at path, reading the file only if it is not
// cached. PNG, JPEG, GIF, BMP and TIFF files are supported.
//
// Errors wrap ErrIOFailure and, where applicable, the underlying os error.
func (c *Cache) Load(path string) (image.Image, error) {
	if img, ok := c.files.Get(path); ok {
		return img.(image.Image), nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrIOFailure, path, err)
	}

	c.files.Add(path, img)
	return img, nil
}

// Raster loads path and converts it to a raster image with a bottom-left
// origin. The result is a fresh buffer owned by the caller.
func (c *Cache) Raster(path string) (*raster.Image, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	src := raster.FromImage(img)
	if src.Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrIOFailure, path)
	}
	return src, nil
}

// Evict removes path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.files.Remove(path)
}

// Clear removes every cached file.
func (c *Cache) Clear() {
	c.files.Purge()
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	return c.files.Len()
}

// ImageInfo describes an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", "bmp", "tiff" or "unknown", from the
	// file extension.
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports an alpha channel. Alpha is dropped by Raster.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through the cache and describes it.
func LoadImageInfo(cache *Cache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrIOFailure, path, err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
