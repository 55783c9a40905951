package zephyr

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"resty.dev/v3"
)

// apiBasePath is the Zephyr Scale (Server/DC) REST root.
const apiBasePath = "/rest/atm/1.0"

type contextKey string

const contextKeyToken = contextKey("zephyrToken")

// WithToken returns a context carrying a per-request bearer token that
// overrides the client's configured credential. The HTTP server mode uses
// this to forward incoming Authorization headers.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

// TokenFromContext retrieves a per-request bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(contextKeyToken).(string)
	return token, ok && token != ""
}

// doer is the transport capability the resource services are built on.
type doer interface {
	Do(ctx context.Context, method, path string, body any, query url.Values) (*resty.Response, error)
}

// Client issues authenticated requests against the Zephyr Scale API and
// aggregates the per-resource services. It is safe for concurrent use;
// invocations share only the underlying connection pool.
type Client struct {
	http *resty.Client

	TestCases    *TestCaseService
	TestPlans    *TestPlanService
	TestRuns     *TestRunService
	TestResults  *TestResultService
	TestSteps    *TestStepService
	Environments *EnvironmentService
}

// NewClient builds a Client from the given configuration. The configuration
// is read once; later mutation has no effect.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.Contains(baseURL, "/rest/atm/") {
		baseURL += apiBasePath
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	hc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	// Bounded retry on transient failures only: transport errors and 5xx.
	// 4xx responses are final and must surface to the caller unchanged.
	if cfg.MaxRetries > 0 {
		hc.SetRetryCount(cfg.MaxRetries).
			SetRetryWaitTime(retryDelay).
			SetRetryMaxWaitTime(retryDelay * 8).
			AddRetryConditions(func(rs *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return rs.StatusCode() >= 500
			})
	}

	if !cfg.SSLVerify {
		hc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
		slog.Warn("zephyr SSL verification disabled, use only in testing environments")
	}

	if proxy := selectProxy(cfg); proxy != "" {
		hc.SetProxy(proxy)
	}
	if cfg.NoProxy != "" {
		os.Setenv("NO_PROXY", cfg.NoProxy)
	}

	for name, value := range cfg.CustomHeaders {
		hc.SetHeader(name, value)
	}

	c := &Client{http: hc}
	c.TestCases = &TestCaseService{client: c}
	c.TestPlans = &TestPlanService{client: c}
	c.TestRuns = &TestRunService{client: c}
	c.TestResults = &TestResultService{client: c}
	c.TestSteps = &TestStepService{client: c}
	c.Environments = &EnvironmentService{client: c}

	slog.Info("zephyr client initialized", "base_url", baseURL)
	return c, nil
}

// selectProxy picks one proxy URL out of the per-scheme settings,
// preferring HTTPS, then SOCKS, then HTTP.
func selectProxy(cfg *Config) string {
	switch {
	case cfg.HTTPSProxy != "":
		return cfg.HTTPSProxy
	case cfg.SocksProxy != "":
		return cfg.SocksProxy
	case cfg.HTTPProxy != "":
		return cfg.HTTPProxy
	default:
		return ""
	}
}

// Do executes one HTTP call against the API. A transport-level failure is
// reported as an AuthenticationError; non-2xx responses are returned to the
// caller for status-specific classification.
func (c *Client) Do(
	ctx context.Context,
	method, path string,
	body any,
	query url.Values,
) (*resty.Response, error) {
	rq := c.http.R().SetContext(ctx)
	if token, ok := TokenFromContext(ctx); ok {
		rq.SetAuthToken(token)
	}
	if body != nil {
		rq.SetBody(body)
	}
	for key, values := range query {
		for _, value := range values {
			rq.SetQueryParam(key, value)
		}
	}

	rs, err := rq.Execute(method, path)
	if err != nil {
		slog.Error("zephyr API request failed", "method", method, "path", path, "error", err)
		return nil, &AuthenticationError{
			Message: "request failed: " + method + " " + path,
			Err:     err,
		}
	}
	slog.Debug("zephyr API request", "method", method, "path", path, "status", rs.StatusCode())
	return rs, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.http.Close()
}
