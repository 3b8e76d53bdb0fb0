// Package stream provides a client for the upstream stream source service.
package stream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Client fetches playable URLs from the stream source. The upstream is
// known to be unreliable; callers wrap GetStreamURL with the resilience
// policies instead of retrying here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a stream source client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Transport-level ceiling; the per-call deadline comes from the
		// caller's context.
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetStreamURL resolves the playable URL for a track. The upstream
// responds with the URL as a plain-text body.
func (c *Client) GetStreamURL(ctx context.Context, trackID string) (string, error) {
	endpoint := c.baseURL + "/source?trackId=" + url.QueryEscape(trackID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build stream request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "stream source request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("stream source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read stream response")
	}

	streamURL := strings.TrimSpace(string(body))
	if streamURL == "" {
		return "", errors.New("stream source returned an empty URL")
	}
	return streamURL, nil
}
