package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	apihttp "github.com/GriffinCanCode/coderegistry/internal/api/http"
	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// APIError is a non-2xx response from the registry
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	AbortCode uint64 `json:"abort_code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("registry: %d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("registry: %d: %s", e.Status, e.Message)
}

// Unwrap exposes the registry sentinel for rule violations, so callers can
// use errors.Is with registry.Err* values
func (e *APIError) Unwrap() error {
	return registry.ErrorForKind(e.Kind)
}

// Options configures a Client
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultOptions returns the client defaults
func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

// Client talks to a registry server. Reads are retried on 5xx and
// transport errors by the retryablehttp transport; publishes are never
// retried since a repeated publish is an upgrade.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
}

// New creates a client for the registry at baseURL
func New(baseURL string, opts Options) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = opts.MinWait
	retryClient.RetryWaitMax = opts.MaxWait
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "regctl/"+apihttp.Version).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New("registry-http", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: isOutage,
	})

	return &Client{resty: r, breaker: breaker}
}

type noRetryKey struct{}

func withoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

// retryPolicy retries transport errors and 5xx, except for requests
// marked withoutRetry
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if skip, _ := ctx.Value(noRetryKey{}).(bool); skip {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// isOutage counts transport errors and 5xx as breaker failures; 4xx are
// answers, not outages
func isOutage(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		if method != http.MethodGet {
			ctx = withoutRetry(ctx)
		}
		apiErr := &APIError{}
		req := c.resty.R().SetContext(ctx).SetError(apiErr)
		if body != nil {
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.IsError() {
			apiErr.Status = resp.StatusCode()
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode())
			}
			return apiErr
		}
		return nil
	})
}

// Health returns the server's health report
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish publishes or upgrades a package
func (c *Client) Publish(ctx context.Context, req code.PublishRequest) (*code.PublishResult, error) {
	var out struct {
		Result code.PublishResult `json:"result"`
	}
	body := apihttp.PublishBody{Publisher: req.Publisher, Package: req.Package, Code: req.Code}
	if err := c.do(ctx, http.MethodPost, "/registry/publish", body, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// Accounts lists accounts with published packages
func (c *Client) Accounts(ctx context.Context) ([]types.Address, error) {
	var out struct {
		Accounts []types.Address `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/registry/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// AccountView is the metadata-only view of a registry
type AccountView struct {
	Address  types.Address           `json:"address"`
	Packages []types.PackageMetadata `json:"packages"`
}

// Account returns package metadata at addr
func (c *Client) Account(ctx context.Context, addr types.Address) (*AccountView, error) {
	var out AccountView
	if err := c.do(ctx, http.MethodGet, "/registry/accounts/"+addr.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Registry returns the full registry at addr, code included
func (c *Client) Registry(ctx context.Context, addr types.Address) (*types.Registry, error) {
	var out types.Registry
	if err := c.do(ctx, http.MethodGet, "/registry/accounts/"+addr.String()+"?full=true", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Package returns one package in full
func (c *Client) Package(ctx context.Context, addr types.Address, name string) (*types.Package, error) {
	var out types.Package
	if err := c.do(ctx, http.MethodGet, "/registry/accounts/"+addr.String()+"/packages/"+name, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns registry counts
func (c *Client) Stats(ctx context.Context) (*types.RegistryStats, error) {
	var out types.RegistryStats
	if err := c.do(ctx, http.MethodGet, "/registry/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
