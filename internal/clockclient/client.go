package clockclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// maxPageSize bounds how much of a reply is read.
	maxPageSize = 64 * 1024
)

// Status is what the clock's index page reports.
type Status struct {
	Title      string
	Version    string
	Address    string
	Brightness int
}

// Config is what the clock's configuration page reports.
type Config struct {
	SSID     string
	Password string
	Timezone string
}

// ConfigUpdate holds the settings to change. Empty fields are left alone.
type ConfigUpdate struct {
	SSID     string
	Password string
	Timezone string
}

// Client represents an HTTP client for one clock.
type Client struct {
	// BaseURL is the base URL for the clock (e.g., "http://192.168.1.50:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// New creates a client for the clock at host:port.
func New(host string, port int) *Client {
	return NewWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewWithURL creates a client with a full base URL.
func NewWithURL(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
			// The clock closes every connection after its reply.
			Transport: &http.Transport{DisableKeepAlives: true},
		},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the clock answers its index page.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/", "", http.StatusOK)
	return err
}

// Status fetches and reads the index page.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	page, err := c.do(ctx, http.MethodGet, "/", "", http.StatusOK)
	if err != nil {
		return nil, err
	}
	return ParseStatus(page)
}

// Config fetches and reads the configuration page.
func (c *Client) Config(ctx context.Context) (*Config, error) {
	page, err := c.do(ctx, http.MethodPost, "/config", "", http.StatusOK)
	if err != nil {
		return nil, err
	}
	return ParseConfig(page)
}

// Brighter raises the display brightness by one step.
func (c *Client) Brighter(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/brighter", "", http.StatusCreated)
	return err
}

// Dimmer lowers the display brightness by one step.
func (c *Client) Dimmer(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/dimmer", "", http.StatusCreated)
	return err
}

// UpdateConfig submits the configuration form. The clock replies 200 even
// when it rejects the values, so callers that care should read Config back.
func (c *Client) UpdateConfig(ctx context.Context, update ConfigUpdate) error {
	body, err := update.FormBody()
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, "/updatecfg", body, http.StatusOK)
	return err
}

// Reboot asks the clock to restart. It is not retried.
func (c *Client) Reboot(ctx context.Context) error {
	_, err := c.once(ctx, http.MethodPost, "/reboot", "", http.StatusOK)
	return err
}

// FormBody renders the update the way the configuration page submits it:
// ";key=value" pairs, unescaped.
func (u ConfigUpdate) FormBody() (string, error) {
	var b strings.Builder
	for _, kv := range [][2]string{
		{"netssid", u.SSID},
		{"netpw", u.Password},
		{"timezone", u.Timezone},
	} {
		if kv[1] == "" {
			continue
		}
		if strings.ContainsAny(kv[1], ";\r\n") {
			return "", NewValidationError(fmt.Sprintf("%s may not contain ';' or line breaks", kv[0]))
		}
		b.WriteString(";" + kv[0] + "=" + kv[1])
	}
	if b.Len() == 0 {
		return "", NewValidationError("nothing to update")
	}
	return b.String(), nil
}

// do runs one request with retries.
func (c *Client) do(ctx context.Context, method, path, body string, want int) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.RetryDelay
	policy.MaxInterval = c.MaxRetryDelay
	policy.MaxElapsedTime = 0

	var page string
	attempt := func() error {
		var err error
		page, err = c.once(ctx, method, path, body, want)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logging.Debug("Retrying clock request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	retries := uint64(0)
	if c.MaxRetries > 0 {
		retries = uint64(c.MaxRetries)
	}
	err := backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify)
	return page, err
}

// once performs a single request.
func (c *Client) once(ctx context.Context, method, path, body string, want int) (string, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("bad request: %v", err))
	}
	if body != "" {
		req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", ClassifyNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", ClassifyNetworkError("failed to read response body", err)
	}
	if resp.StatusCode != want {
		return "", NewHTTPError(resp.StatusCode, fmt.Sprintf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}
	return string(data), nil
}

// ParseStatus reads the values shown on the index page.
func ParseStatus(page string) (*Status, error) {
	v, err := scanPage(page)
	if err != nil {
		return nil, err
	}

	brightness, ok := v.labels["Brightness"]
	if !ok {
		return nil, NewParseError("index page has no brightness", nil)
	}
	level, err := strconv.Atoi(strings.TrimSpace(brightness))
	if err != nil {
		return nil, NewParseError("invalid brightness", err)
	}

	return &Status{
		Title:      v.heading,
		Version:    v.labels["Firmware"],
		Address:    v.labels["Address"],
		Brightness: level,
	}, nil
}

// ParseConfig reads the form values on the configuration page.
func ParseConfig(page string) (*Config, error) {
	v, err := scanPage(page)
	if err != nil {
		return nil, err
	}

	ssid, ok := v.inputs["netssid"]
	if !ok {
		return nil, NewParseError("configuration page has no SSID field", nil)
	}
	return &Config{
		SSID:     ssid,
		Password: v.inputs["netpw"],
		Timezone: v.inputs["timezone"],
	}, nil
}
