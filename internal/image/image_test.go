package imagepkg_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/util"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func testFace(t *testing.T, size float64) *imagepkg.Face {
	t.Helper()
	f, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	face, err := imagepkg.NewFace(f, size)
	require.NoError(t, err)
	return face
}

func TestSurface_Lifecycle(t *testing.T) {
	s, err := imagepkg.NewSurface(8, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Width())
	assert.Equal(t, 4, s.Height())
	assert.Equal(t, 1, s.Refs())

	s.Image().Set(1, 1, color.RGBA{R: 255, A: 255})

	c := s.Clone()
	c.Image().Set(1, 1, color.RGBA{G: 255, A: 255})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, s.Image().RGBAAt(1, 1))

	s.Retain()
	s.Release()
	assert.False(t, s.Released())
	s.Release()
	assert.True(t, s.Released())
	assert.Panics(t, s.Release)

	assert.Equal(t, color.RGBA{G: 255, A: 255}, c.Image().RGBAAt(1, 1))
	c.Release()
}

func TestSurface_PooledBufferIsCleared(t *testing.T) {
	s, err := imagepkg.NewSurface(16, 16)
	require.NoError(t, err)
	imagepkg.FillRect(s.Image(), s.Bounds(), imagepkg.Solid(imagepkg.White))
	s.Release()

	again, err := imagepkg.NewSurface(16, 16)
	require.NoError(t, err)
	defer again.Release()
	assert.Equal(t, color.RGBA{}, again.Image().RGBAAt(5, 5))
}

func TestNewSurface_RejectsBadSizes(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, -1}, {imagepkg.MaxSurfacePixels, 2}} {
		_, err := imagepkg.NewSurface(dims[0], dims[1])
		assert.ErrorIs(t, err, imagepkg.ErrSurfaceSize)
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 14, 13))
	src.Set(10, 10, color.NRGBA{B: 255, A: 255})

	s, err := imagepkg.FromImage(src)
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, image.Rect(0, 0, 4, 3), s.Bounds())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, s.Image().RGBAAt(0, 0))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#FF0000", color.NRGBA{R: 255, A: 255}},
		{"00ff0080", color.NRGBA{G: 255, A: 128}},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	}
	for _, tt := range tests {
		got, err := imagepkg.ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := imagepkg.ParseColor("#12345")
	assert.ErrorIs(t, err, imagepkg.ErrInvalidColor)
	_, err = imagepkg.ParseColor("#GGGGGG")
	assert.ErrorIs(t, err, imagepkg.ErrInvalidColor)

	assert.Equal(t, imagepkg.Black, imagepkg.ParseColorOr("nope", imagepkg.Black))
}

func TestFillRoundRect_ClipsCorners(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	imagepkg.FillRoundRect(dst, imagepkg.RectF{W: 100, H: 100}, imagepkg.Uniform(30), imagepkg.Solid(imagepkg.White))

	assert.Equal(t, uint8(0), dst.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), dst.RGBAAt(99, 99).A)
	assert.Equal(t, uint8(255), dst.RGBAAt(50, 50).A)
	assert.Equal(t, uint8(255), dst.RGBAAt(50, 1).A)
}

func TestFillPolygon(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	imagepkg.FillPolygon(dst, []imagepkg.Point{{0, 0}, {20, 0}, {0, 20}}, imagepkg.Solid(imagepkg.White))

	assert.Equal(t, uint8(255), dst.RGBAAt(2, 2).A)
	assert.Equal(t, uint8(0), dst.RGBAAt(18, 18).A)
}

func TestGradients(t *testing.T) {
	r := image.Rect(0, 0, 10, 100)
	g := imagepkg.VerticalGradient(r, color.NRGBA{A: 255}, color.NRGBA{R: 200, A: 255})

	top := g.At(5, 0).(color.NRGBA)
	bottom := g.At(5, 99).(color.NRGBA)
	assert.Less(t, top.R, uint8(5))
	assert.Greater(t, bottom.R, uint8(195))
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, g.At(5, 500))
	assert.Equal(t, color.NRGBA{A: 255}, g.At(5, -50))

	rg := imagepkg.CornerRadialGradient(image.Rect(0, 0, 100, 100), color.NRGBA{B: 255, A: 255}, color.NRGBA{A: 255})
	center := rg.At(50, 50).(color.NRGBA)
	corner := rg.At(0, 0).(color.NRGBA)
	assert.Greater(t, center.B, corner.B)
}

func TestBlurRoundRect_StaysInsideRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	imagepkg.FillRect(dst, dst.Rect, imagepkg.Solid(imagepkg.Black))
	for x := 0; x < 60; x += 2 {
		imagepkg.FillRect(dst, image.Rect(x, 0, x+1, 60), imagepkg.Solid(imagepkg.White))
	}
	before := dst.RGBAAt(5, 5)

	imagepkg.BlurRoundRect(dst, imagepkg.RectF{X: 20, Y: 20, W: 20, H: 20}, imagepkg.Uniform(4), 3)

	assert.Equal(t, before, dst.RGBAAt(5, 5))
	mid := dst.RGBAAt(30, 30)
	assert.Equal(t, uint8(255), mid.A)
	assert.Greater(t, mid.R, uint8(50))
	assert.Less(t, mid.R, uint8(205))
}

func TestFace_MeasureAndTruncate(t *testing.T) {
	face := testFace(t, 20)

	short := face.Measure("Hi")
	long := face.Measure("Hello there")
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)

	b := face.Bounds("Hg")
	assert.Less(t, b.Top, 0.0)
	assert.Greater(t, b.Bottom, 0.0)

	assert.Equal(t, "Hi", face.Truncate("Hi", 100))
	got := face.Truncate("A very long cosmetic name", 80)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, face.Measure(got), 80.0)
}

func TestFace_SplitLines(t *testing.T) {
	face := testFace(t, 20)

	assert.Equal(t, []string{"Renegade"}, face.SplitLines("Renegade", 200))

	lines := face.SplitLines("Renegade Raider Legacy Bundle", 150)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Renegade"))
	for _, l := range lines {
		assert.LessOrEqual(t, face.Measure(l), 150.0)
	}

	lines = face.SplitLines("The Quick Brown Fox Jumps Over The Lazy Dog Again And Again", 120)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "..."))
}

func TestFace_Fit(t *testing.T) {
	face := testFace(t, 100)
	fitted := face.Fit("Support-A-Creator", 300, 10)
	assert.Less(t, fitted.Size(), 100.0)
	assert.LessOrEqual(t, fitted.Measure("Support-A-Creator"), 300.0)
	assert.Same(t, face, face.Fit("a", 300, 10))
}

func TestFace_DrawPaintsInk(t *testing.T) {
	face := testFace(t, 30)
	dst := image.NewRGBA(image.Rect(0, 0, 100, 40))
	face.Draw(dst, "W", 50, 30, imagepkg.White, imagepkg.AlignCenter)

	var inked int
	for i := 3; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] > 0 {
			inked++
		}
	}
	assert.Greater(t, inked, 20)
}

func TestWidgets_Dimensions(t *testing.T) {
	face := testFace(t, 20)

	overlay := imagepkg.ItemCardOverlay(256, image.NewNRGBA(image.Rect(0, 0, 32, 32)))
	assert.Equal(t, image.Rect(0, 0, 256, 65), overlay.Rect)

	stripe := imagepkg.RarityStripe(256, imagepkg.White)
	assert.Equal(t, image.Rect(0, 0, 256, 14), stripe.Rect)

	box := imagepkg.DiscordBox(face, nil, strings.Repeat("long-user-name", 10), 1)
	assert.Equal(t, 459, box.Rect.Dx())
	assert.Equal(t, 62, box.Rect.Dy())

	pill := imagepkg.Pill(face, strings.Repeat("NEW ", 30), imagepkg.White, imagepkg.Black, 240)
	assert.Equal(t, 240, pill.Rect.Dx())
	assert.Equal(t, 34, pill.Rect.Dy())

	code := imagepkg.CreatorCodeBox(testFace(t, 100), "Support a Creator", "EASYFNSTATS", 600)
	assert.LessOrEqual(t, code.Rect.Dx(), 600)

	badge := imagepkg.LogoBadge(face, nil, "EASYFNSTATS.COM", 1.5)
	assert.Equal(t, 75, badge.Rect.Dy())
}

func TestProgressBar_MinimumWidth(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 600, 30))
	imagepkg.ProgressBar(dst, 0, 5, 500, 20, 0.01, 20, imagepkg.White, imagepkg.White)

	assert.Equal(t, uint8(255), dst.RGBAAt(15, 15).A)
	assert.Equal(t, uint8(0), dst.RGBAAt(30, 15).A)

	empty := image.NewRGBA(image.Rect(0, 0, 600, 30))
	imagepkg.ProgressBar(empty, 0, 5, 500, 20, 0, 20, imagepkg.White, imagepkg.White)
	assert.Equal(t, uint8(0), empty.RGBAAt(5, 15).A)
}

func TestComposeEntryArt(t *testing.T) {
	art := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	imagepkg.FillRect(art, art.Rect, imagepkg.Solid(imagepkg.White))

	card := image.NewRGBA(image.Rect(0, 0, 256, 408))
	imagepkg.ComposeEntryArt(card, art, imagepkg.FitDefault, 0)
	assert.Equal(t, uint8(255), card.RGBAAt(128, 204).A)

	cover := image.NewRGBA(image.Rect(0, 0, 256, 408))
	imagepkg.ComposeEntryArt(cover, art, imagepkg.FitCover, 0)
	assert.Equal(t, uint8(0), cover.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(255), cover.RGBAAt(128, 128).A)
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 7))

	b, err := imagepkg.EncodeBytes(img, imagepkg.PNG, 100)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Width)

	j, err := imagepkg.EncodeBytes(img, imagepkg.JPEG, 45)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, j[:2])

	assert.Equal(t, "image/jpeg", imagepkg.JPEG.ContentType())
	assert.Equal(t, "image/png", imagepkg.PNG.ContentType())
}

func TestGenerateQR(t *testing.T) {
	b, err := imagepkg.GenerateQRPNG("https://example.com", 256)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)

	img, err := imagepkg.GenerateQRImage("hello", 10)
	require.NoError(t, err)
	assert.Equal(t, imagepkg.MinQRSize, img.Bounds().Dx())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestFetcher(t *testing.T) {
	body := pngBytes(t, 3, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(body)
		case "/garbage.png":
			_, _ = w.Write([]byte("not an image"))
		case "/slow.png":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := imagepkg.NewFetcher(srv.Client(), 200*time.Millisecond)
	ctx := context.Background()

	img, err := f.Fetch(ctx, srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, err = f.Fetch(ctx, srv.URL+"/missing.png")
	require.ErrorIs(t, err, imagepkg.ErrUpstreamFetch)
	assert.ErrorIs(t, err, util.ErrHTTPStatus)
	assert.Equal(t, http.StatusNotFound, util.StatusCode(err))

	_, err = f.Fetch(ctx, srv.URL+"/garbage.png")
	assert.ErrorIs(t, err, imagepkg.ErrUpstreamFetch)

	_, err = f.Fetch(ctx, srv.URL+"/slow.png")
	assert.ErrorIs(t, err, imagepkg.ErrUpstreamFetch)

	_, err = f.Fetch(ctx, "")
	assert.ErrorIs(t, err, imagepkg.ErrUpstreamFetch)
}
