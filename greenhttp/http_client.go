// Package greenhttp is a thin wrapper around net/http used by the direct
// download backend. Requests carry a context so an interrupted run can abort
// a transfer that is still streaming.
package greenhttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// DefaultUserAgent is sent when the caller does not set one.
const DefaultUserAgent = "dataset_downloader"

type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a client without an overall timeout; dataset archives
// can take far longer than any sensible fixed deadline.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client: &http.Client{},
	}
}

// NewHTTPClientWith wraps an existing *http.Client.
func NewHTTPClientWith(client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{client: client}
}

func (c *HTTPClient) DoRequest(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) NewRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	return req, nil
}

func (c *HTTPClient) Do(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, method, url, headers, nil)
	if err != nil {
		return nil, err
	}
	return c.DoRequest(req)
}
