package bungie

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/kpango/glg"
	"github.com/pkg/errors"
)

// Client is a type that contains all information needed to make raw requests
// to the Bungie API. The underlying http.Client keeps one keep-alive pool
// shared by every operation; it is safe for concurrent use.
type Client struct {
	*http.Client
	apiKey string
}

// NewClient will create a new Bungie Client with the provided API key. The
// key is required; the API rejects everything without one so an empty key
// fails immediately instead of at the first request.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("a bungie api key is required")
	}

	return &Client{
		Client: &http.Client{Timeout: RequestTimeout},
		apiKey: apiKey,
	}, nil
}

// AuthenticationHeaders will generate a map with the required headers to
// make an authenticated HTTP call to the Bungie API.
func (c *Client) AuthenticationHeaders() map[string]string {
	return map[string]string{
		"X-API-Key":    c.apiKey,
		"Content-Type": "application/json",
	}
}

// Get performs an authenticated GET and returns the status code and body.
func (c *Client) Get(ctx context.Context, url string) (int, []byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post performs an authenticated POST with a JSON body and returns the
// status code and body.
func (c *Client) Post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to build bungie request")
	}
	for key, val := range c.AuthenticationHeaders() {
		req.Header.Add(key, val)
	}

	glg.Debugf("%s %s", method, url)

	resp, err := c.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "bungie request failed: %s", url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "failed to read bungie response body")
	}

	return resp.StatusCode, data, nil
}
