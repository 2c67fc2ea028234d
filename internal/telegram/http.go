package telegram

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// deadlineClient gives each Bot API call its own deadline: uploads of the
// finished clip get the delivery budget, everything else the request
// budget.
type deadlineClient struct {
	client  *http.Client
	request time.Duration
	upload  time.Duration
}

func (c *deadlineClient) Do(req *http.Request) (*http.Response, error) {
	limit := c.request
	if strings.HasSuffix(req.URL.Path, "/sendAnimation") {
		limit = c.upload
	}
	ctx, cancel := context.WithTimeout(req.Context(), limit)
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	// The library decodes the body after Do returns.
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
