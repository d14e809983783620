package docfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/ports/adapter"
)

var _ adapter.DocumentFetcher = (*HTTPFetcher)(nil)

// HTTPFetcher retrieves upstream documents over HTTP so browser clients can
// read cited sources without tripping cross-origin rules. Responses are
// capped at maxBytes to keep a hostile URL from streaming forever.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(maxBytes int64, timeout time.Duration) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) (*adapter.Document, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidArgument, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("upstream http %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		resp.Body.Close()
		return nil, fmt.Errorf("document too large: %d bytes", resp.ContentLength)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &adapter.Document{
		ContentType: ct,
		Length:      resp.ContentLength,
		Body: &limitedBody{
			Reader: io.LimitReader(resp.Body, f.maxBytes),
			closer: resp.Body,
		},
	}, nil
}

type limitedBody struct {
	io.Reader
	closer io.Closer
}

func (b *limitedBody) Close() error { return b.closer.Close() }
