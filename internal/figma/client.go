package figma

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.figma.com"

// Client fetches documents from the Figma REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("figma api status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// RetryableError indicates a transient failure (429 or 5xx) that the
// caller may retry.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// GetFile fetches the whole document of a file.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*Node, error) {
	return c.get(ctx, "/v1/files/"+url.PathEscape(fileKey), nil)
}

// GetNodes fetches only the given node subtrees of a file.
func (c *Client) GetNodes(ctx context.Context, fileKey string, ids []string) (*Node, error) {
	if len(ids) == 0 {
		return c.GetFile(ctx, fileKey)
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	return c.get(ctx, "/v1/files/"+url.PathEscape(fileKey)+"/nodes", q)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*Node, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("X-Figma-Token", c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("figma api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	root, err := Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("figma file %s: %w", path, err)
	}
	return root, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
