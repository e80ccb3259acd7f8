// Package settings loads the JSON documents the UI reads once per process:
// free-form configuration, localized strings and naming conventions.
//
// Each service fetches its document on Initialize. A failed fetch is logged and leaves
// the service uninitialized; readers then fall back to defaults or raw keys.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotInitialized is returned by accessors that have no fallback.
var ErrNotInitialized = errors.New("settings: not initialized")

const maxDocumentSize = 4 << 20

// Fetch reads location, which is either an http(s) URL or a file path.
func Fetch(ctx context.Context, client *http.Client, location string) ([]byte, error) {
	if location == "" {
		return nil, errors.New("settings: empty location")
	}
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		return data, nil
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("settings: HTTP %d from %s", resp.StatusCode, location)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return data, nil
}

// loader is the fetch-once state shared by the services. parse installs the document;
// it runs with mu held.
type loader struct {
	mu          sync.RWMutex
	location    string
	client      *http.Client
	log         *zap.Logger
	initialized bool
}

func newLoader(location string, client *http.Client, log *zap.Logger, name string) loader {
	if log == nil {
		log = zap.NewNop()
	}
	return loader{location: location, client: client, log: log.Named(name)}
}

// initialize fetches and parses the document unless a previous call already succeeded.
func (l *loader) initialize(ctx context.Context, parse func([]byte) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return nil
	}
	data, err := Fetch(ctx, l.client, l.location)
	if err == nil {
		err = parse(data)
	}
	if err != nil {
		l.log.Warn("load failed, staying uninitialized", zap.String("location", l.location), zap.Error(err))
		return err
	}
	l.initialized = true
	l.log.Debug("loaded", zap.String("location", l.location))
	return nil
}

func (l *loader) isInitialized() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.initialized
}
