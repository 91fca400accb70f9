package config

import (
	"sync"
	"sync/atomic"
)

var (
	loadMu  sync.Mutex
	current atomic.Pointer[Settings]
)

// Get returns the process-wide settings, loading them with default options on first use.
// A failed load is not cached, so the next call tries again.
func Get() (*Settings, error) {
	if s := current.Load(); s != nil {
		return s, nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	if s := current.Load(); s != nil {
		return s, nil
	}

	s, err := Load(LoadOptions{})
	if err != nil {
		return nil, err
	}
	current.Store(s)
	return s, nil
}

// Reset drops the cached settings. Tests use it to reload after changing the environment.
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	current.Store(nil)
}
