package transport

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/alex-user-go/farescan/internal/search"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// HTTPTransport sends flight searches to the API endpoint with a fixed header set.
type HTTPTransport struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
}

// NewHTTPTransport creates a new HTTPTransport.
func NewHTTPTransport(endpoint string, headers map[string]string, timeout time.Duration) *HTTPTransport {
	return NewHTTPTransportWithClient(endpoint, headers, &http.Client{Timeout: timeout})
}

// NewHTTPTransportWithClient creates a transport on top of an existing client.
func NewHTTPTransportWithClient(endpoint string, headers map[string]string, client *http.Client) *HTTPTransport {
	return &HTTPTransport{
		endpoint:   endpoint,
		headers:    maps.Clone(headers),
		httpClient: client,
	}
}

// Send issues a GET for the descriptor and returns the raw body.
func (t *HTTPTransport) Send(ctx context.Context, d search.Descriptor) ([]byte, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()
	for k, vs := range d.Query() {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore close error
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
