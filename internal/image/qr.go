package imagepkg

import (
	"image"

	qrcode "github.com/skip2/go-qrcode"
	"go.trai.ch/zerr"
)

// QR code sizes accepted by the utils endpoint.
const (
	MinQRSize     = 64
	MaxQRSize     = 2048
	DefaultQRSize = 400
)

// GenerateQRPNG returns PNG bytes of a QR code for the given text.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	b, err := qrcode.Encode(text, qrcode.Medium, clampQRSize(size))
	if err != nil {
		return nil, zerr.Wrap(err, "encode qr code")
	}
	return b, nil
}

// GenerateQRImage returns the QR code as an image for further composition.
func GenerateQRImage(text string, size int) (image.Image, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, zerr.Wrap(err, "encode qr code")
	}
	return q.Image(clampQRSize(size)), nil
}

func clampQRSize(size int) int {
	if size <= 0 {
		return DefaultQRSize
	}
	return max(MinQRSize, min(size, MaxQRSize))
}
