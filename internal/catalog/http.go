package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	// DefaultRateLimit is the number of catalog requests allowed per second.
	DefaultRateLimit = 2.0
)

// HTTPClient is a Client backed by the catalog's JSON API.
type HTTPClient struct {
	BaseURL string
	GameID  string
	APIKey  string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithRateLimit caps requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) HTTPOption {
	return func(h *HTTPClient) {
		if perSecond <= 0 {
			h.limiter = nil
			return
		}
		h.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithAPIKey sends key in the apikey header of every request.
func WithAPIKey(key string) HTTPOption {
	return func(h *HTTPClient) { h.APIKey = strings.TrimSpace(key) }
}

// NewHTTPClient returns a catalog client rooted at baseURL.
func NewHTTPClient(baseURL, gameID string, opts ...HTTPOption) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog URL %q: %w", baseURL, err)
	}

	h := &HTTPClient{
		BaseURL:    baseURL,
		GameID:     gameID,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// GetUpdated returns the catalog ids of mods updated within period.
func (h *HTTPClient) GetUpdated(ctx context.Context, period string) ([]string, error) {
	q := url.Values{}
	q.Set("period", period)
	if h.GameID != "" {
		q.Set("game", h.GameID)
	}
	endpoint := h.BaseURL + "/updated?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching updated mods: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching updated mods: HTTP %d", resp.StatusCode)
	}

	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("decoding updated mods: %w", err)
	}
	return ids, nil
}

type fileInfoRequest struct {
	Game  string   `json:"game,omitempty"`
	Lines []string `json:"lines"`
}

// GetFileListInfo posts a batch of query lines. Throttling and gateway
// errors, like an explicit null body, come back as a nil slice so the caller
// may retry.
func (h *HTTPClient) GetFileListInfo(ctx context.Context, lines []QueryLine) ([]library.RemoteModInfo, error) {
	body, err := json.Marshal(fileInfoRequest{Game: h.GameID, Lines: Strings(lines)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/files/info", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching file info: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		logging.Debugf("Verbose: catalog file info unavailable: HTTP %d\n", resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	default:
		return nil, fmt.Errorf("fetching file info: HTTP %d", resp.StatusCode)
	}

	var infos []library.RemoteModInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, fmt.Errorf("decoding file info: %w", err)
	}
	return infos, nil
}

func (h *HTTPClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req.Header.Set("Accept", "application/json")
	if h.APIKey != "" {
		req.Header.Set("apikey", h.APIKey)
	}
	logging.Debugf("Verbose: catalog request %s %s\n", req.Method, req.URL.Path)
	return h.httpClient.Do(req)
}
