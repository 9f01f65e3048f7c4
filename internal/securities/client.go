// Package securities fetches market data for the securities side of a
// portfolio: historical quotes from Yahoo Finance and corporate events and
// scrip codes from the BSE. Responses are cached on disk per day because
// the providers rate limit aggressively.
package securities

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

const (
	defaultYahooBaseURL = "https://query1.finance.yahoo.com"
	defaultBSEBaseURL   = "https://api.bseindia.com"
)

// ClientConfig holds configuration options for the market data client.
type ClientConfig struct {
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// CacheDir holds cached responses. Empty means a consolidator
	// directory under the user cache dir.
	CacheDir string
	// DisableCache turns the response cache off.
	DisableCache bool

	YahooBaseURL string
	BSEBaseURL   string

	Logger logger.Logger
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:      30 * time.Second,
		YahooBaseURL: defaultYahooBaseURL,
		BSEBaseURL:   defaultBSEBaseURL,
		Logger:       logger.GetGlobalLogger(),
	}
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.YahooBaseURL == "" || c.BSEBaseURL == "" {
		return fmt.Errorf("provider base URLs cannot be empty")
	}
	return nil
}

// Client talks to the market data providers.
type Client struct {
	http   *http.Client
	config *ClientConfig
	logger logger.Logger
}

// NewClient creates a market data client. A nil config uses defaults.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.YahooBaseURL == "" {
		config.YahooBaseURL = defaultYahooBaseURL
	}
	if config.BSEBaseURL == "" {
		config.BSEBaseURL = defaultBSEBaseURL
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	transport := http.DefaultTransport
	if !config.DisableCache {
		dir := config.CacheDir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err == nil {
				dir = filepath.Join(base, "consolidator", "market-data")
			}
		}
		if dir != "" {
			transport = &diskCache{dir: dir, next: transport}
		}
	}

	return &Client{
		http: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		config: config,
		logger: log.WithComponent("securities"),
	}, nil
}

// getJSON fetches addr and decodes the JSON response into v. The request
// mimics a browser because the BSE rejects default client agents.
func (c *Client) getJSON(ctx context.Context, addr string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return apperrors.NetworkError(apperrors.CodeConnectionFailed, addr, err)
	}
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.bseindia.com/")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.NetworkError(apperrors.CodeTimeout, addr, err)
		}
		return apperrors.NetworkError(apperrors.CodeConnectionFailed, addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return apperrors.NetworkError(apperrors.CodeServiceUnavailable, addr, nil).
			WithContext("status", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NetworkError(apperrors.CodeBadResponse, addr, nil).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NetworkError(apperrors.CodeBadResponse, addr, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NetworkError(apperrors.CodeBadResponse, addr, err)
	}
	return nil
}

// diskCache is a RoundTripper that stores successful responses on disk,
// keyed by day and URL, and replays them on later requests.
type diskCache struct {
	dir  string
	next http.RoundTripper
}

func (d *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	path := filepath.Join(d.dir, d.key(req))

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		resp, err := http.ReadResponse(bufio.NewReader(f), req)
		if err == nil {
			return resp, nil
		}
		// unreadable cache entries are dropped and refetched
		os.Remove(path)
	}

	resp, err := d.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return resp, nil
	}
	if err := os.MkdirAll(d.dir, 0755); err == nil {
		_ = os.WriteFile(path, dump, 0644)
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(dump)), req)
}

// key builds the cache file name: a hash over the day and the full URL,
// so entries expire daily.
func (d *diskCache) key(req *http.Request) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s %s %s", time.Now().UTC().Format("2006-01-02"), req.Method, req.URL.String())
	return fmt.Sprintf("%x.http", h.Sum(nil))
}
