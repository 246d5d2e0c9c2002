// Package registry registers translated job parameter forms with the dataset
// service.
//
// Two endpoints are supported. CreateOrUpdateJob posts a job together with its
// translated form to /jobs/create_or_update. CreateOrUpdateDeployment asks the
// service to build and deploy a job image and waits for the deployment to
// finish, following the Location header of every 202 response.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reoring/mdform"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultDeployTimeout = 50 * time.Second
	DefaultPollInterval  = 2 * time.Second

	// RequestIDHeader carries a fresh UUID on every outgoing request.
	RequestIDHeader = "X-Request-ID"
)

var (
	// ErrTranslation wraps schema translation failures in Register. They are
	// never retried.
	ErrTranslation = errors.New("registry: schema translation failed")
	// ErrUnchanged is returned by CreateOrUpdateJob when the payload matches
	// the digest recorded for the job's slug and nothing was sent.
	ErrUnchanged = errors.New("registry: job unchanged")
)

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("registry: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ". Response body: " + truncate(e.Body)
	}
	return msg
}

func truncate(s string) string {
	if len(s) > 512 {
		return s[:512] + "... (truncated)"
	}
	return s
}

// Options configures a Client.
type Options struct {
	// BaseURL is the service root, e.g. http://md-data-set-web. A trailing
	// slash is ignored.
	BaseURL string
	// APIKey switches deployments to the authenticated /api endpoint and is
	// sent as a bearer token.
	APIKey string
	// Timeout bounds each job request. Zero means DefaultTimeout.
	Timeout time.Duration
	// DeployTimeout bounds each deployment request and poll. Zero means
	// DefaultDeployTimeout.
	DeployTimeout time.Duration
	// PollInterval is the wait between deployment polls. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
	// HTTPClient defaults to a fresh http.Client.
	HTTPClient *http.Client
	// Digests, when set, suppresses job posts whose payload did not change.
	Digests DigestStore
	// Translator is the pipeline Register uses. Zero value means
	// mdform.DefaultConfig().
	Translator *mdform.Config
	Logger     *zap.Logger
}

// Client talks to the dataset service. It is safe for concurrent use.
type Client struct {
	base          string
	apiKey        string
	timeout       time.Duration
	deployTimeout time.Duration
	pollInterval  time.Duration
	http          *http.Client
	digests       DigestStore
	translator    mdform.Config
	log           *zap.Logger
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("registry: invalid base URL %q: %w", opts.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("registry: base URL %q must be an absolute http(s) URL", opts.BaseURL)
	}

	c := &Client{
		base:          base,
		apiKey:        opts.APIKey,
		timeout:       orDefault(opts.Timeout, DefaultTimeout),
		deployTimeout: orDefault(opts.DeployTimeout, DefaultDeployTimeout),
		pollInterval:  orDefault(opts.PollInterval, DefaultPollInterval),
		http:          opts.HTTPClient,
		digests:       opts.Digests,
		translator:    mdform.DefaultConfig(),
		log:           opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if opts.Translator != nil {
		c.translator = *opts.Translator
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string { return c.base }

type response struct {
	status   int
	location string
	body     []byte
}

// do sends one request bounded by timeout. Non-2xx statuses become *HTTPError.
func (c *Client) do(ctx context.Context, method, target string, body []byte, timeout time.Duration) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("registry: build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("registry: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("request failed",
			zap.String("method", method), zap.String("url", target),
			zap.Int("status_code", resp.StatusCode), zap.String("request_id", reqID))
		return nil, &HTTPError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(data)}
	}
	c.log.Info("request completed",
		zap.String("method", method), zap.String("url", target),
		zap.Int("status_code", resp.StatusCode), zap.String("request_id", reqID))
	return &response{status: resp.StatusCode, location: resp.Header.Get("Location"), body: data}, nil
}

// decode unmarshals a JSON response body. An empty body decodes to nil.
func decode(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("registry: decode response: %w", err)
	}
	return out, nil
}

// resolve turns a Location header into an absolute URL on the service.
func (c *Client) resolve(location string) string {
	if u, err := url.Parse(location); err == nil && u.IsAbs() {
		return location
	}
	return c.base + "/" + strings.TrimPrefix(location, "/")
}
