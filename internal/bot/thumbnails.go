package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ThumbnailFetcher downloads a preview image.
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type noThumbnails struct{}

func (noThumbnails) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("thumbnails disabled")
}

// maxThumbnailBytes caps what a thumbnail download may read.
const maxThumbnailBytes = 5 << 20

// HTTPThumbnails fetches thumbnails over HTTP.
type HTTPThumbnails struct {
	client *http.Client
}

// NewHTTPThumbnails returns a fetcher whose requests give up after timeout.
func NewHTTPThumbnails(timeout time.Duration) *HTTPThumbnails {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPThumbnails{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads url and returns the body.
func (h *HTTPThumbnails) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("no thumbnail url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build thumbnail request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch thumbnail: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if len(body) > maxThumbnailBytes {
		return nil, fmt.Errorf("thumbnail exceeds %d bytes", maxThumbnailBytes)
	}
	if len(body) == 0 {
		return nil, errors.New("thumbnail is empty")
	}
	return body, nil
}
