package model

import "go.trai.ch/zerr"

// ErrInvalidInput marks requests that are missing data required for the
// requested image. Handlers map it to 400.
var ErrInvalidInput = zerr.New("invalid input")

func invalid(msg string) error {
	return zerr.Wrap(ErrInvalidInput, msg)
}
