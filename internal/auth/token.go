package auth

import (
	"sync"
	"time"

	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// Token represents a cached corp access token. ExpiresAt already has the
// safety margin subtracted.
type Token struct {
	CorpAccessToken string    `json:"corpAccessToken"`
	CorpID          string    `json:"corpId"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// ValidAt reports whether the token can be used at now.
func (t *Token) ValidAt(now time.Time) bool {
	if t == nil || t.CorpAccessToken == "" {
		return false
	}

	return now.Before(t.ExpiresAt)
}

// Valid reports whether the token can be used right now.
func (t *Token) Valid() bool {
	return t.ValidAt(time.Now())
}

// Pair returns the identity injected into data requests.
func (t *Token) Pair() fxcrm.TokenPair {
	return fxcrm.TokenPair{
		CorpAccessToken: t.CorpAccessToken,
		CorpID:          t.CorpID,
	}
}

// TokenStore holds the current token.
type TokenStore struct {
	mutex sync.RWMutex
	token *Token
}

// NewTokenStore creates a new token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns a copy of the current token.
func (s *TokenStore) Get() *Token {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.token == nil {
		return nil
	}

	token := *s.token

	return &token
}

// Set stores a copy of the token.
func (s *TokenStore) Set(token *Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if token == nil {
		s.token = nil

		return
	}

	stored := *token
	s.token = &stored
}

// Clear removes the token.
func (s *TokenStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = nil
}
