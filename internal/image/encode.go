package imagepkg

import (
	"bytes"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"go.trai.ch/zerr"
)

// Format is an output encoding.
type Format int

const (
	PNG Format = iota
	JPEG
)

func (f Format) ContentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img in the given format. Quality only applies to JPEG.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	var err error
	switch f {
	case JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(max(1, min(quality, 100))))
	default:
		err = imaging.Encode(w, img, imaging.PNG)
	}
	if err != nil {
		return zerr.Wrap(err, "encode image")
	}
	return nil
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
