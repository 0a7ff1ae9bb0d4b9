package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	internalhttp "github.com/sharecrm-io/fxcrm/internal/http"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// Static errors for err113 compliance.
var (
	ErrMissingAccessToken = errors.New("token response carries no corpAccessToken")
	ErrMissingExpiresIn   = errors.New("token response carries no expiresIn")
)

// Credentials are the long-lived app secrets exchanged for a corp access token.
type Credentials struct {
	AppID         string `json:"appId"`
	AppSecret     string `json:"appSecret"`
	PermanentCode string `json:"permanentCode"`
}

// CorpTokenConfig configures a CorpTokenManager.
type CorpTokenConfig struct {
	TokenURL    string
	Credentials Credentials
	Transport   fxcrm.Transport
	Logger      fxcrm.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// CorpTokenManager hands out corp access tokens, refreshing from the auth
// endpoint when the cached one has expired. It does not serialize
// concurrent refreshes.
type CorpTokenManager struct {
	config *CorpTokenConfig
	store  *TokenStore
}

// NewCorpTokenManager creates a new token manager.
func NewCorpTokenManager(config *CorpTokenConfig) *CorpTokenManager {
	if config.Transport == nil {
		config.Transport = internalhttp.NewClient()
	}

	if config.Logger == nil {
		config.Logger = fxcrm.NopLogger{}
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	return &CorpTokenManager{
		config: config,
		store:  NewTokenStore(),
	}
}

// NewFxiaokeTokenManager creates a token manager for the corp access token
// endpoint under authRoot.
func NewFxiaokeTokenManager(authRoot string, credentials Credentials, transport fxcrm.Transport) *CorpTokenManager {
	if authRoot == "" {
		authRoot = constants.DefaultAuthRoot
	}

	return NewCorpTokenManager(&CorpTokenConfig{
		TokenURL:    strings.TrimSuffix(authRoot, "/") + constants.CorpAccessTokenPath,
		Credentials: credentials,
		Transport:   transport,
	})
}

// FreshToken returns the cached token while it is valid and refreshes it
// otherwise. A failed refresh leaves the cache untouched.
func (m *CorpTokenManager) FreshToken(ctx context.Context) (fxcrm.TokenPair, error) {
	token := m.store.Get()
	if token.ValidAt(m.config.Now()) {
		return token.Pair(), nil
	}

	token, err := m.requestToken(ctx)
	if err != nil {
		return fxcrm.TokenPair{}, err
	}

	m.store.Set(token)

	return token.Pair(), nil
}

// RefreshToken forces a refresh.
func (m *CorpTokenManager) RefreshToken(ctx context.Context) error {
	token, err := m.requestToken(ctx)
	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken manually sets the cached token.
func (m *CorpTokenManager) SetToken(pair fxcrm.TokenPair, expiresAt time.Time) {
	m.store.Set(&Token{
		CorpAccessToken: pair.CorpAccessToken,
		CorpID:          pair.CorpID,
		ExpiresAt:       expiresAt,
	})
}

// Token returns a copy of the cached token, or nil.
func (m *CorpTokenManager) Token() *Token {
	return m.store.Get()
}

func (m *CorpTokenManager) requestToken(ctx context.Context) (*Token, error) {
	body, err := json.Marshal(m.config.Credentials)
	if err != nil {
		return nil, &fxcrm.AuthError{Err: fmt.Errorf("encoding credentials: %w", err)}
	}

	headers := make(http.Header)
	headers.Set("Accept", "application/json")

	req := &fxcrm.Request{
		Method:  http.MethodPost,
		URL:     m.config.TokenURL,
		Headers: headers,
		Body:    body,
	}

	resp, err := m.config.Transport.Do(ctx, req)
	if err != nil {
		m.config.Logger.Error("corp access token request failed", map[string]interface{}{
			"url":   m.config.TokenURL,
			"error": err.Error(),
		})

		return nil, &fxcrm.AuthError{Err: err}
	}

	if resp.StatusCode != constants.HTTPStatusOK {
		return nil, &fxcrm.AuthError{Err: &fxcrm.TransportError{
			Method:     req.Method,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}}
	}

	envelope, err := fxcrm.ParseEnvelope(resp.Body)
	if err != nil {
		return nil, &fxcrm.AuthError{Err: err}
	}

	if !envelope.Success() {
		m.config.Logger.Warn("corp access token rejected", map[string]interface{}{
			"error_code":    envelope.ErrorCode,
			"error_message": envelope.Message(),
		})

		return nil, &fxcrm.AuthError{Envelope: envelope}
	}

	accessToken, _ := envelope.Body.String(constants.FieldCorpAccessToken)
	if accessToken == "" {
		return nil, &fxcrm.AuthError{Envelope: envelope, Err: ErrMissingAccessToken}
	}

	expiresIn, ok := envelope.Body.Int("expiresIn")
	if !ok {
		return nil, &fxcrm.AuthError{Envelope: envelope, Err: ErrMissingExpiresIn}
	}

	corpID, _ := envelope.Body.String(constants.FieldCorpID)
	expiresAt := m.config.Now().Add(time.Duration(expiresIn)*time.Second - constants.TokenExpirationBuffer)

	m.config.Logger.Debug("corp access token refreshed", map[string]interface{}{
		"corp_id":    corpID,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	return &Token{
		CorpAccessToken: accessToken,
		CorpID:          corpID,
		ExpiresAt:       expiresAt,
	}, nil
}
