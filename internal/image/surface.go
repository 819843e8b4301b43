package imagepkg

import (
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"go.trai.ch/zerr"
)

// MaxSurfacePixels bounds a single allocation. Large lockers and shops stay
// well below it.
const MaxSurfacePixels = 12000 * 12000

var ErrSurfaceSize = zerr.New("surface dimensions out of range")

// Surface is a reference-counted RGBA canvas. A new surface holds one
// reference; when the last reference is released the pixel buffer goes back
// to a pool keyed by its length. Only the sole owner of a surface may draw
// into it.
type Surface struct {
	img  *image.RGBA
	refs atomic.Int32
}

var pixPools sync.Map // int -> *sync.Pool

func pixPool(n int) *sync.Pool {
	if p, ok := pixPools.Load(n); ok {
		return p.(*sync.Pool)
	}
	p, _ := pixPools.LoadOrStore(n, &sync.Pool{})
	return p.(*sync.Pool)
}

func allocPix(n int) []byte {
	if v := pixPool(n).Get(); v != nil {
		pix := *(v.(*[]byte))
		clear(pix)
		return pix
	}
	return make([]byte, n)
}

func freePix(pix []byte) {
	if len(pix) == 0 {
		return
	}
	pixPool(len(pix)).Put(&pix)
}

// NewSurface allocates a transparent w×h surface.
func NewSurface(w, h int) (*Surface, error) {
	if w <= 0 || h <= 0 || w > MaxSurfacePixels/h {
		err := zerr.With(zerr.Wrap(ErrSurfaceSize, "new surface"), "width", w)
		return nil, zerr.With(err, "height", h)
	}
	img := &image.RGBA{
		Pix:    allocPix(4 * w * h),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	s := &Surface{img: img}
	s.refs.Store(1)
	return s, nil
}

// FromImage copies img into a new surface whose origin is (0, 0).
func FromImage(img image.Image) (*Surface, error) {
	b := img.Bounds()
	s, err := NewSurface(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(s.img, s.img.Rect, img, b.Min, draw.Src)
	return s, nil
}

// Image exposes the pixels. Callers that share the surface must treat them as
// read-only.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

func (s *Surface) Width() int {
	return s.img.Rect.Dx()
}

func (s *Surface) Height() int {
	return s.img.Rect.Dy()
}

func (s *Surface) Bounds() image.Rectangle {
	return s.img.Rect
}

// Clone returns an independent copy with its own reference count.
func (s *Surface) Clone() *Surface {
	c := &Surface{img: &image.RGBA{
		Pix:    allocPix(len(s.img.Pix)),
		Stride: s.img.Stride,
		Rect:   s.img.Rect,
	}}
	copy(c.img.Pix, s.img.Pix)
	c.refs.Store(1)
	return c
}

func (s *Surface) Retain() {
	if s.refs.Add(1) <= 1 {
		panic("imagepkg: retain of released surface")
	}
}

// Release drops one reference. The pixels must not be used after the last
// reference is gone.
func (s *Surface) Release() {
	n := s.refs.Add(-1)
	switch {
	case n == 0:
		pix := s.img.Pix
		s.img.Pix = nil
		freePix(pix)
	case n < 0:
		panic("imagepkg: surface released too many times")
	}
}

// Released reports whether the last reference has been dropped.
func (s *Surface) Released() bool {
	return s.refs.Load() <= 0
}

// Refs returns the current reference count.
func (s *Surface) Refs() int {
	return int(s.refs.Load())
}
