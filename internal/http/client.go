package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// Client sends exactly one HTTP request per Do call. Status codes are
// returned as-is; only network and encoding failures are errors.
type Client struct {
	httpClient   *retryablehttp.Client
	logger       fxcrm.Logger
	debug        bool
	userAgent    string
	timeout      time.Duration
	interceptors *fxcrm.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger fxcrm.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds each exchange. Zero disables the client-side bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInterceptors sets the interceptor chain.
func WithInterceptors(chain *fxcrm.InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.interceptors = chain
		}
	}
}

// WithProxy routes requests through proxy.
func WithProxy(proxy func(*http.Request) (*url.URL, error)) Option {
	return func(c *Client) {
		transport, ok := c.httpClient.HTTPClient.Transport.(*http.Transport)
		if !ok {
			return
		}

		transport.Proxy = proxy
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a new HTTP client.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	transport, ok := http.DefaultTransport.(*http.Transport)
	if ok {
		transport = transport.Clone()
	} else {
		transport = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}

	retryClient.HTTPClient = &http.Client{Transport: transport}

	client := &Client{
		httpClient:   retryClient,
		logger:       fxcrm.NopLogger{},
		userAgent:    constants.UserAgent,
		timeout:      constants.DefaultHTTPTimeout,
		interceptors: fxcrm.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ProxyFunc builds a proxy selector from a scheme to proxy URL map.
func ProxyFunc(proxies map[string]string) (func(*http.Request) (*url.URL, error), error) {
	parsed := make(map[string]*url.URL, len(proxies))

	for scheme, rawURL := range proxies {
		proxyURL, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parsing %s proxy: %w", scheme, err)
		}

		parsed[scheme] = proxyURL
	}

	return func(req *http.Request) (*url.URL, error) {
		return parsed[req.URL.Scheme], nil
	}, nil
}

// Do sends req once.
func (c *Client) Do(ctx context.Context, req *fxcrm.Request) (*fxcrm.Response, error) {
	if req.Headers == nil {
		req.Headers = make(http.Header)
	}

	if req.Headers.Get("User-Agent") == "" && c.userAgent != "" {
		req.Headers.Set("User-Agent", c.userAgent)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = req.Headers.Clone()
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	response := &fxcrm.Response{Duration: time.Since(start)}

	if err != nil {
		response.Error = err
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, response)

		return response, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		response.Error = err
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, response)

		return response, fmt.Errorf("reading response body: %w", err)
	}

	response.StatusCode = resp.StatusCode
	response.Headers = resp.Header
	response.Body = data

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
			"duration":    response.Duration.String(),
		})
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, req, response)
	if err != nil {
		return response, err
	}

	return response, nil
}

func encodeBody(req *fxcrm.Request) ([]byte, string, error) {
	if len(req.Files) == 0 {
		if req.Body == nil {
			return nil, "", nil
		}

		return req.Body, "application/json", nil
	}

	var buffer bytes.Buffer

	writer := multipart.NewWriter(&buffer)

	keys := make([]string, 0, len(req.Fields))
	for key := range req.Fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		err := writer.WriteField(key, req.Fields[key])
		if err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", key, err)
		}
	}

	for _, file := range req.Files {
		err := writeFile(writer, file)
		if err != nil {
			return nil, "", err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}

	return buffer.Bytes(), writer.FormDataContentType(), nil
}

func writeFile(writer *multipart.Writer, file fxcrm.File) error {
	content := file.Content
	if content == nil {
		// #nosec G304 -- the caller chose the upload path
		data, err := os.ReadFile(file.Path)
		if err != nil {
			return fmt.Errorf("reading upload %s: %w", file.Path, err)
		}

		content = data
	}

	filename := file.Filename
	if filename == "" {
		filename = filepath.Base(file.Path)
	}

	part, err := writer.CreateFormFile(file.Field, filename)
	if err != nil {
		return fmt.Errorf("creating form file %s: %w", file.Field, err)
	}

	_, err = part.Write(content)
	if err != nil {
		return fmt.Errorf("writing form file %s: %w", file.Field, err)
	}

	return nil
}

// leveledLogger adapts fxcrm.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger fxcrm.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFromPairs(keysAndValues))
}

func fieldsFromPairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
