// Package fxclient provides the main entry point for creating Fxiaoke CRM API clients
package fxclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sharecrm-io/fxcrm/internal/auth"
	"github.com/sharecrm-io/fxcrm/internal/client"
	"github.com/sharecrm-io/fxcrm/internal/constants"
	internalhttp "github.com/sharecrm-io/fxcrm/internal/http"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// New creates a new CRM API client. The transport runs a copy of
// Interceptors followed by the curl dump and metrics interceptors that Debug
// and Metrics ask for; config itself is never modified.
func New(ctx context.Context, config *fxcrm.Config) (fxcrm.Client, error) {
	err := validate(config)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = fxcrm.NopLogger{}
	}

	transport := config.Transport
	if transport == nil {
		transport, err = newTransport(config, logger)
		if err != nil {
			return nil, err
		}
	}

	authRoot := strings.TrimSuffix(config.AuthRoot, "/")
	if authRoot == "" {
		authRoot = constants.DefaultAuthRoot
	}

	tokens := auth.NewCorpTokenManager(&auth.CorpTokenConfig{
		TokenURL: authRoot + constants.CorpAccessTokenPath,
		Credentials: auth.Credentials{
			AppID:         config.AppID,
			AppSecret:     config.AppSecret,
			PermanentCode: config.PermanentCode,
		},
		Transport: transport,
		Logger:    logger,
	})

	apiClient, err := client.New(&client.Config{
		APIRoot:      strings.TrimSuffix(config.APIRoot, "/"),
		APIVersion:   config.APIVersion,
		OpenUserID:   config.OpenUserID,
		TokenManager: tokens,
		Transport:    transport,
		Logger:       logger,
		Metrics:      config.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	if config.FetchTokenOnInit {
		_, err = tokens.FreshToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching corp access token: %w", err)
		}
	}

	if config.SetAsDefault {
		fxcrm.SetDefault(apiClient)
	}

	return apiClient, nil
}

// NewWithCredentials creates a new client from app credentials and the
// acting user's open id.
func NewWithCredentials(ctx context.Context, appID, appSecret, permanentCode, openUserID string) (fxcrm.Client, error) {
	return New(ctx, &fxcrm.Config{
		AppID:         appID,
		AppSecret:     appSecret,
		PermanentCode: permanentCode,
		OpenUserID:    openUserID,
	})
}

func validate(config *fxcrm.Config) error {
	switch {
	case config == nil:
		return fxcrm.ErrConfigRequired
	case config.AppID == "":
		return fxcrm.ErrAppIDRequired
	case config.AppSecret == "":
		return fxcrm.ErrAppSecretRequired
	case config.PermanentCode == "":
		return fxcrm.ErrPermanentCodeRequired
	}

	return nil
}

// NewTransport builds the default HTTP transport described by config:
// timeout, user agent, proxies, curl dumps, metrics and interceptors.
func NewTransport(config *fxcrm.Config) (fxcrm.Transport, error) {
	if config == nil {
		return nil, fxcrm.ErrConfigRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = fxcrm.NopLogger{}
	}

	transport, err := newTransport(config, logger)
	if err != nil {
		return nil, err
	}

	return transport, nil
}

func newTransport(config *fxcrm.Config, logger fxcrm.Logger) (*internalhttp.Client, error) {
	chain := fxcrm.NewInterceptorChain()
	if config.Interceptors != nil {
		chain = config.Interceptors.Clone()
	}

	if config.Debug {
		writer := config.DebugWriter
		if writer == nil {
			writer = os.Stderr
		}

		chain.AddRequestInterceptor(fxcrm.CurlInterceptor(writer))
	}

	if config.Metrics != nil {
		fxcrm.AddMetricsInterceptors(chain, config.Metrics)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = constants.UserAgent
	}

	opts := []internalhttp.Option{
		internalhttp.WithLogger(logger),
		internalhttp.WithDebug(config.Debug),
		internalhttp.WithTimeout(timeout),
		internalhttp.WithUserAgent(userAgent),
		internalhttp.WithInterceptors(chain),
	}

	if len(config.Proxies) > 0 {
		proxy, err := internalhttp.ProxyFunc(config.Proxies)
		if err != nil {
			return nil, fmt.Errorf("configuring proxies: %w", err)
		}

		opts = append(opts, internalhttp.WithProxy(proxy))
	}

	return internalhttp.NewClient(opts...), nil
}
