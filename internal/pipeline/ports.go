package pipeline

import (
	"context"
	"image"

	"golang.org/x/image/font/opentype"
)

// Assets resolves static bitmaps and fonts. Implementations cache forever and
// are safe for concurrent use.
//
//go:generate mockgen -destination=mocks/ports_mock.go -package=mocks -source=ports.go
type Assets interface {
	// Bitmap returns the image at path, or false when it is missing.
	Bitmap(path string) (image.Image, bool)
	// Font returns the font at path or a bundled substitute.
	Font(path string) *opentype.Font
	// Glob lists asset paths matching pattern.
	Glob(pattern string) []string
}

// Fetcher downloads remote entry images.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}
