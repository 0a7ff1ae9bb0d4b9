package fxcrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Request represents an HTTP request that can be intercepted.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	// Body is the JSON payload. Ignored when Files is not empty.
	Body []byte
	// Fields are the multipart form fields sent alongside Files.
	Fields   map[string]string
	Files    []File
	Timeout  time.Duration
	Metadata map[string]interface{}
}

// Response represents an HTTP response that can be intercepted.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
	Duration   time.Duration
}

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after a response is received.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// Clone returns a chain holding the same interceptors. Adding to the clone
// leaves c unchanged.
func (c *InterceptorChain) Clone() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  append([]RequestInterceptor(nil), c.requestInterceptors...),
		responseInterceptors: append([]ResponseInterceptor(nil), c.responseInterceptors...),
	}
}

// Len returns the number of registered interceptors.
func (c *InterceptorChain) Len() int {
	return len(c.requestInterceptors) + len(c.responseInterceptors)
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Common Interceptors

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
			"duration":    resp.Duration.String(),
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// CurlInterceptor writes every request to w as an equivalent curl command.
// The dump includes the body, and with it the corp access token.
func CurlInterceptor(w io.Writer) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		_, err := fmt.Fprintln(w, CurlCommand(req))
		if err != nil {
			return fmt.Errorf("writing curl command: %w", err)
		}

		return nil
	}
}

// CurlCommand renders req as a curl command line.
func CurlCommand(req *Request) string {
	parts := []string{"curl", "-X", req.Method}

	keys := make([]string, 0, len(req.Headers))
	for key := range req.Headers {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range req.Headers[key] {
			parts = append(parts, "-H", shellQuote(key+": "+value))
		}
	}

	if len(req.Files) > 0 {
		fieldKeys := make([]string, 0, len(req.Fields))
		for key := range req.Fields {
			fieldKeys = append(fieldKeys, key)
		}

		sort.Strings(fieldKeys)

		for _, key := range fieldKeys {
			parts = append(parts, "-F", shellQuote(key+"="+req.Fields[key]))
		}

		for _, file := range req.Files {
			parts = append(parts, "-F", shellQuote(file.Field+"=@"+file.Path))
		}
	} else if len(req.Body) > 0 {
		parts = append(parts, "-d", shellQuote(string(req.Body)))
	}

	parts = append(parts, shellQuote(req.URL))

	return strings.Join(parts, " ")
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// EventPublisher publishes a message on a subject. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// CallEvent is the message published for every HTTP exchange. It never
// carries the request body.
type CallEvent struct {
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// EventInterceptor publishes a CallEvent for every response. Publish
// failures are logged and never fail the call.
func EventInterceptor(publisher EventPublisher, subject string, logger Logger) ResponseInterceptor {
	if logger == nil {
		logger = NopLogger{}
	}

	return func(ctx context.Context, req *Request, resp *Response) error {
		event := CallEvent{
			Method:     req.Method,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			DurationMS: resp.Duration.Milliseconds(),
			Time:       time.Now().UTC(),
		}

		if resp.Error != nil {
			event.Error = resp.Error.Error()
		}

		data, err := json.Marshal(event)
		if err != nil {
			logger.Warn("failed to encode call event", map[string]interface{}{"error": err.Error()})

			return nil
		}

		err = publisher.Publish(subject, data)
		if err != nil {
			logger.Warn("failed to publish call event", map[string]interface{}{
				"subject": subject,
				"error":   err.Error(),
			})
		}

		return nil
	}
}
