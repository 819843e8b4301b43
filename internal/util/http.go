package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.trai.ch/zerr"
)

// MaxBodyBytes caps downloads so a misbehaving upstream cannot exhaust memory.
const MaxBodyBytes = 32 << 20

var ErrHTTPStatus = zerr.New("unexpected http status")

// StatusError carries the status code of a failed request. It matches
// ErrHTTPStatus with errors.Is.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrHTTPStatus.Error(), e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// StatusCode returns the status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// GetBytes downloads url. Non-2xx responses return a *StatusError.
func GetBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, zerr.Wrap(err, "build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, zerr.Wrap(err, "read body")
	}
	return body, nil
}
