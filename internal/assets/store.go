// Package assets loads the static bitmaps and fonts used by the layouts. Every
// file is read once and kept for the lifetime of the process.
package assets

import (
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"go.trai.ch/zerr"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/sync/singleflight"
)

// Store resolves paths relative to a root directory. A bitmap that is missing
// or undecodable is remembered as missing; a missing font is replaced by the
// closest bundled Go font.
type Store struct {
	root   string
	logger *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	bitmaps map[string]image.Image
	fonts   map[string]*opentype.Font
}

// New returns a store rooted at root. An empty root means the working
// directory.
func New(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:    root,
		logger:  logger,
		bitmaps: make(map[string]image.Image),
		fonts:   make(map[string]*opentype.Font),
	}
}

// Path joins path to the store root.
func (s *Store) Path(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Bitmap returns the decoded image at path, or false when it does not exist.
// The returned image is shared and must not be modified.
func (s *Store) Bitmap(path string) (image.Image, bool) {
	if path == "" {
		return nil, false
	}
	s.mu.RLock()
	img, ok := s.bitmaps[path]
	s.mu.RUnlock()
	if ok {
		return img, img != nil
	}

	v, _, _ := s.group.Do("bmp:"+path, func() (any, error) {
		s.mu.RLock()
		img, ok := s.bitmaps[path]
		s.mu.RUnlock()
		if ok {
			return img, nil
		}

		img, err := imaging.Open(s.Path(path))
		if err != nil {
			s.logger.Debug("bitmap unavailable", "path", path, "error", err)
			img = nil
		}
		s.mu.Lock()
		s.bitmaps[path] = img
		s.mu.Unlock()
		return img, nil
	})
	img, _ = v.(image.Image)
	return img, img != nil
}

// Font returns the font at path. It never returns nil.
func (s *Store) Font(path string) *opentype.Font {
	s.mu.RLock()
	f, ok := s.fonts[path]
	s.mu.RUnlock()
	if ok {
		return f
	}

	v, _, _ := s.group.Do("font:"+path, func() (any, error) {
		s.mu.RLock()
		f, ok := s.fonts[path]
		s.mu.RUnlock()
		if ok {
			return f, nil
		}

		f, err := s.loadFont(path)
		if err != nil {
			s.logger.Debug("font unavailable, using fallback", "path", path, "error", err)
			f = fallbackFont(path)
		}
		s.mu.Lock()
		s.fonts[path] = f
		s.mu.Unlock()
		return f, nil
	})
	return v.(*opentype.Font)
}

// Glob lists the paths under the root matching pattern, relative to the root
// and sorted.
func (s *Store) Glob(pattern string) []string {
	matches, err := filepath.Glob(s.Path(pattern))
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.root, m)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	slices.Sort(out)
	return out
}

func (s *Store) loadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(s.Path(path))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "read font"), "path", path)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "parse font"), "path", path)
	}
	return f, nil
}

var (
	fallbackOnce  sync.Once
	fallbackFonts map[string]*opentype.Font
)

// fallbackFont picks a bundled Go font matching the weight named in path.
func fallbackFont(path string) *opentype.Font {
	fallbackOnce.Do(func() {
		fallbackFonts = make(map[string]*opentype.Font, 4)
		for name, ttf := range map[string][]byte{
			"regular":    goregular.TTF,
			"medium":     gomedium.TTF,
			"bold":       gobold.TTF,
			"bolditalic": gobolditalic.TTF,
		} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				panic(err)
			}
			fallbackFonts[name] = f
		}
	})

	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "bolditalic"):
		return fallbackFonts["bolditalic"]
	case strings.Contains(name, "bold"):
		return fallbackFonts["bold"]
	case strings.Contains(name, "medium"):
		return fallbackFonts["medium"]
	default:
		return fallbackFonts["regular"]
	}
}
