package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// Static errors for err113 compliance.
var (
	ErrTokenManagerRequired = errors.New("token manager is required")
	ErrTransportRequired    = errors.New("transport is required")
)

// Config wires a Client.
type Config struct {
	APIRoot      string
	APIVersion   string
	OpenUserID   string
	TokenManager fxcrm.TokenManager
	Transport    fxcrm.Transport
	Logger       fxcrm.Logger
	Metrics      *fxcrm.MetricsCollector
}

// Client implements the fxcrm.Client interface.
type Client struct {
	apiRoot      string
	apiVersion   string
	openUserID   string
	tokenManager fxcrm.TokenManager
	transport    fxcrm.Transport
	logger       fxcrm.Logger
	metrics      *fxcrm.MetricsCollector

	attempted    atomic.Int64
	succeeded    atomic.Int64
	lastResponse atomic.Pointer[fxcrm.Response]
}

// New creates a new CRM API client.
func New(config *Config) (*Client, error) {
	if config.TokenManager == nil {
		return nil, ErrTokenManagerRequired
	}

	if config.Transport == nil {
		return nil, ErrTransportRequired
	}

	client := &Client{
		apiRoot:      config.APIRoot,
		apiVersion:   config.APIVersion,
		openUserID:   config.OpenUserID,
		tokenManager: config.TokenManager,
		transport:    config.Transport,
		logger:       config.Logger,
		metrics:      config.Metrics,
	}

	if client.apiRoot == "" {
		client.apiRoot = constants.DefaultAPIRoot
	}

	if client.apiVersion == "" {
		client.apiVersion = constants.DefaultAPIVersion
	}

	if client.logger == nil {
		client.logger = fxcrm.NopLogger{}
	}

	return client, nil
}

// RequestsAttempted implements fxcrm.Client.
func (c *Client) RequestsAttempted() int64 {
	return c.attempted.Load()
}

// RequestsSucceeded implements fxcrm.Client.
func (c *Client) RequestsSucceeded() int64 {
	return c.succeeded.Load()
}

// LastResponse implements fxcrm.Client.
func (c *Client) LastResponse() *fxcrm.Response {
	return c.lastResponse.Load()
}

// Call performs one authenticated call. params is never modified.
func (c *Client) Call(ctx context.Context, method string, path fxcrm.Path, params fxcrm.Params, opts ...fxcrm.CallOption) (*fxcrm.Result, error) {
	c.attempted.Add(1)

	if c.metrics != nil {
		c.metrics.CallAttempted()
	}

	options := fxcrm.ApplyCallOptions(opts...)
	url := c.resolve(path, options)

	pair, err := c.tokenManager.FreshToken(ctx)
	if err != nil {
		if !fxcrm.IsAuthError(err) {
			err = &fxcrm.AuthError{Err: err}
		}

		return nil, err
	}

	req, err := c.buildRequest(method, url, params, pair, options)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, req)
	if resp != nil {
		c.lastResponse.Store(resp)
	}

	if err != nil {
		c.logFailure("transport failure", method, url, params, err)

		return nil, err
	}

	if resp.StatusCode != constants.HTTPStatusOK {
		return nil, &fxcrm.TransportError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	envelope, err := fxcrm.ParseEnvelope(resp.Body)
	if err != nil {
		c.logFailure("undecodable response", method, url, params, err)

		return nil, err
	}

	if !envelope.Success() {
		return nil, &fxcrm.APIError{Envelope: envelope}
	}

	c.succeeded.Add(1)

	if c.metrics != nil {
		c.metrics.CallSucceeded()
	}

	return fxcrm.NewResult(envelope), nil
}

func (c *Client) resolve(path fxcrm.Path, options *fxcrm.CallOptions) string {
	root := c.apiRoot
	if options.URLOverride != "" {
		root = options.URLOverride
	}

	version := c.apiVersion
	if options.APIVersion != "" {
		version = options.APIVersion
	}

	return path.Resolve(root, version)
}

func (c *Client) buildRequest(method, url string, params fxcrm.Params, pair fxcrm.TokenPair, options *fxcrm.CallOptions) (*fxcrm.Request, error) {
	body := params.Clone()
	if body == nil {
		body = fxcrm.Params{}
	}

	body[constants.FieldCurrentOpenUserID] = c.openUserID
	body[constants.FieldCorpAccessToken] = pair.CorpAccessToken
	body[constants.FieldCorpID] = pair.CorpID

	headers := make(http.Header, len(options.Headers)+2)
	for key, value := range options.Headers {
		headers.Set(key, value)
	}

	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")

	req := &fxcrm.Request{
		Method:   method,
		URL:      url,
		Headers:  headers,
		Metadata: make(map[string]interface{}),
	}

	if len(options.Files) > 0 {
		fields, err := formFields(body)
		if err != nil {
			return nil, err
		}

		req.Fields = fields
		req.Files = options.Files

		return req, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req.Body = data

	return req, nil
}

// formFields flattens the top level of body into multipart form fields.
// Strings are sent as-is, anything else JSON-encoded.
func formFields(body fxcrm.Params) (map[string]string, error) {
	fields := make(map[string]string, len(body))

	for key, value := range body {
		if text, ok := value.(string); ok {
			fields[key] = text

			continue
		}

		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding form field %s: %w", key, err)
		}

		fields[key] = string(data)
	}

	return fields, nil
}

func (c *Client) logFailure(msg, method, url string, params fxcrm.Params, err error) {
	c.logger.Error(msg, map[string]interface{}{
		"method": method,
		"url":    url,
		"params": params,
		"error":  err.Error(),
	})
}
