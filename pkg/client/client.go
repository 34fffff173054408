package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a sitekeeper daemon over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	username string
	password string
	token    string
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Logger   *slog.Logger
	Username string
	Password string
	Token    string
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8420/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new sitekeeper API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8420/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		logger:   config.Logger,
		client:   &http.Client{Timeout: config.Timeout},
		username: config.Username,
		password: config.Password,
		token:    config.Token,
	}
}

// IsReachable reports whether the daemon answers on the status endpoint.
func (c *Client) IsReachable(ctx context.Context) bool {
	var out []SiteStatus
	if err := c.getJSON(ctx, c.baseURL+"/status", &out); err != nil {
		c.logger.Debug("daemon unreachable", "err", err)
		return false
	}
	return true
}

// Start starts the named site.
func (c *Client) Start(ctx context.Context, name string) error {
	return c.post(ctx, c.baseURL+"/start?name="+url.QueryEscape(name), nil)
}

// Stop stops the named site.
func (c *Client) Stop(ctx context.Context, name string) error {
	return c.post(ctx, c.baseURL+"/stop?name="+url.QueryEscape(name), nil)
}

// Restart restarts the named site.
func (c *Client) Restart(ctx context.Context, name string) error {
	return c.post(ctx, c.baseURL+"/restart?name="+url.QueryEscape(name), nil)
}

// Status fetches the status of one site.
func (c *Client) Status(ctx context.Context, name string) (SiteStatus, error) {
	var st SiteStatus
	err := c.getJSON(ctx, c.baseURL+"/status?name="+url.QueryEscape(name), &st)
	return st, err
}

// StatusAll fetches the status of every registered site.
func (c *Client) StatusAll(ctx context.Context) ([]SiteStatus, error) {
	var out []SiteStatus
	err := c.getJSON(ctx, c.baseURL+"/status", &out)
	return out, err
}

// Logs fetches the last n lines of the site log. n <= 0 uses the server default.
func (c *Client) Logs(ctx context.Context, name string, n int) ([]string, error) {
	u := c.baseURL + "/logs/" + url.PathEscape(name)
	if n > 0 {
		u += "?lines=" + strconv.Itoa(n)
	}
	var resp LogsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

// AddSite registers a new site with the daemon.
func (c *Client) AddSite(ctx context.Context, spec SiteSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}
	return c.post(ctx, c.baseURL+"/sites", data)
}

// RemoveSite unregisters a site. The daemon rejects removal while it runs.
func (c *Client) RemoveSite(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/sites/"+url.PathEscape(name), nil)
}

// Reload asks the daemon to re-read its config file and replace the site set.
func (c *Client) Reload(ctx context.Context) error {
	return c.post(ctx, c.baseURL+"/reload", nil)
}

// Follow streams log lines from the SSE endpoint, invoking fn per line until
// ctx is canceled or the server closes the stream.
func (c *Client) Follow(ctx context.Context, name string, fn func(line string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stream/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout here: the stream is long-lived.
	streamClient := &http.Client{Transport: c.client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			fn(strings.TrimPrefix(data, " "))
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		return
	}
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "err", err, "url", url)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) errorFrom(resp *http.Response) error {
	var er ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", er.Error)
}
