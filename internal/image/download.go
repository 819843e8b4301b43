package imagepkg

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/youruser/imageapi/internal/util"
	"go.trai.ch/zerr"

	_ "golang.org/x/image/webp"
)

// DefaultFetchTimeout bounds a single image download.
const DefaultFetchTimeout = 10 * time.Second

var ErrUpstreamFetch = zerr.New("upstream image fetch failed")

// Fetcher downloads and decodes remote images.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher returns a Fetcher using client. A zero timeout selects
// DefaultFetchTimeout.
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{client: client, timeout: timeout}
}

// Fetch downloads url and decodes it. Errors wrap ErrUpstreamFetch; HTTP
// failures also match util.ErrHTTPStatus.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, zerr.Wrap(ErrUpstreamFetch, "empty url")
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := util.GetBytes(ctx, f.client, url)
	if err != nil {
		return nil, zerr.With(fetchError{err}, "url", url)
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, zerr.With(fetchError{zerr.Wrap(err, "decode image")}, "url", url)
	}
	return img, nil
}

// fetchError makes a transport or decode failure match ErrUpstreamFetch while
// keeping the underlying cause reachable.
type fetchError struct {
	cause error
}

func (e fetchError) Error() string        { return ErrUpstreamFetch.Error() + ": " + e.cause.Error() }
func (e fetchError) Unwrap() error        { return e.cause }
func (e fetchError) Is(target error) bool { return target == ErrUpstreamFetch }
