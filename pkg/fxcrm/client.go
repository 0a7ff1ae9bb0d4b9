package fxcrm

import (
	"context"
	"io"
	"time"
)

// Caller performs a single call against the CRM API.
type Caller interface {
	Call(ctx context.Context, method string, path Path, params Params, opts ...CallOption) (*Result, error)
}

// Client is a Caller that also exposes its call accounting.
type Client interface {
	Caller

	// RequestsAttempted returns the number of calls attempted.
	RequestsAttempted() int64
	// RequestsSucceeded returns the number of calls that passed both the
	// status and the envelope checks.
	RequestsSucceeded() int64
	// LastResponse returns the raw response of the most recent call.
	LastResponse() *Response
}

// TokenManager hands out a corp access token that is valid right now.
type TokenManager interface {
	FreshToken(ctx context.Context) (TokenPair, error)
}

// Transport sends one request and returns the raw response. Non-200 status
// codes are not errors at this layer.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// CallOptions holds the per-call settings assembled from CallOption values.
type CallOptions struct {
	Headers     map[string]string
	Files       []File
	APIVersion  string
	URLOverride string
}

// CallOption customizes a single call.
type CallOption func(*CallOptions)

// WithHeaders adds request headers. Default headers win on conflict.
func WithHeaders(headers map[string]string) CallOption {
	return func(o *CallOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string, len(headers))
		}

		for key, value := range headers {
			o.Headers[key] = value
		}
	}
}

// WithFiles attaches multipart uploads.
func WithFiles(files ...File) CallOption {
	return func(o *CallOptions) {
		o.Files = append(o.Files, files...)
	}
}

// WithAPIVersion overrides the configured API version for segment paths.
func WithAPIVersion(version string) CallOption {
	return func(o *CallOptions) {
		o.APIVersion = version
	}
}

// WithURLOverride replaces the configured API root for segment paths.
func WithURLOverride(root string) CallOption {
	return func(o *CallOptions) {
		o.URLOverride = root
	}
}

// ApplyCallOptions folds opts into a CallOptions value.
func ApplyCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// Config represents client configuration for building a Client with
// fxclient.New.
//
// # Credentials
//
// AppID, AppSecret and PermanentCode are exchanged for a corp access token at
// {AuthRoot}/corpAccessToken/get/V2. The token is cached in memory until 30
// seconds before the expiry announced by the server. OpenUserID is sent as
// currentOpenUserId with every data call.
//
// # Timeouts
//
// Timeout bounds every HTTP exchange, including token refreshes. The context
// passed to each call can shorten it further. There are no retries.
type Config struct {
	// Required fields
	AppID         string
	AppSecret     string
	PermanentCode string

	// OpenUserID identifies the acting user for data calls.
	OpenUserID string

	// APIVersion defaults to "v2".
	APIVersion string
	// APIRoot defaults to https://open.fxiaoke.com/cgi/crm.
	APIRoot string
	// AuthRoot defaults to https://open.fxiaoke.com/cgi.
	AuthRoot string

	// Proxies maps a URL scheme ("http", "https") to a proxy URL.
	Proxies map[string]string
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Debug dumps every request as a curl command to DebugWriter (stderr if nil).
	Debug       bool
	DebugWriter io.Writer

	// Logger: optional structured logger used by the HTTP layer and the client.
	Logger Logger
	// Interceptors are run around every HTTP exchange. The chain is copied
	// when the client is built.
	Interceptors *InterceptorChain
	// Metrics, when set, records call and request metrics.
	Metrics *MetricsCollector
	// Transport replaces the default HTTP transport. Proxies, Timeout,
	// UserAgent, Debug and Interceptors only configure the default one.
	Transport Transport

	// FetchTokenOnInit obtains a corp access token while the client is built.
	FetchTokenOnInit bool

	// SetAsDefault registers the new client with SetDefault.
	SetAsDefault bool
}
