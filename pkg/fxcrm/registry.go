package fxcrm

import "sync"

var (
	defaultMutex  sync.RWMutex
	defaultCaller Caller
)

// SetDefault registers caller as the process-wide default. Nothing in this
// package falls back to it implicitly; callers opt in with Default.
func SetDefault(caller Caller) {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()

	defaultCaller = caller
}

// Default returns the registered default caller.
func Default() (Caller, error) {
	defaultMutex.RLock()
	defer defaultMutex.RUnlock()

	if defaultCaller == nil {
		return nil, ErrNoDefaultClient
	}

	return defaultCaller, nil
}

// ResetDefault clears the registered default caller.
func ResetDefault() {
	SetDefault(nil)
}
