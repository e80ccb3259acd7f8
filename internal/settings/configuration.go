package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// ViewerKey is the configuration entry holding the viewer's feature switches.
const ViewerKey = "viewer"

// Configuration is a key -> JSON object document, e.g. server endpoints or feature switches.
type Configuration struct {
	loader
	values map[string]json.RawMessage
}

// NewConfiguration returns an uninitialized configuration read from location.
func NewConfiguration(location string, client *http.Client, log *zap.Logger) *Configuration {
	return &Configuration{loader: newLoader(location, client, log, "configuration")}
}

// Initialize loads the document. Calling it again after success is a no-op.
func (c *Configuration) Initialize(ctx context.Context) error {
	return c.initialize(ctx, func(data []byte) error {
		var values map[string]json.RawMessage
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		c.values = values
		return nil
	})
}

// Initialized reports whether a document has been loaded.
func (c *Configuration) Initialized() bool {
	return c.isInitialized()
}

// Get returns the raw JSON stored under key.
func (c *Configuration) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Decode unmarshals the value under key into out. It returns ErrNotInitialized before a
// successful Initialize and ok=false when the key is absent.
func (c *Configuration) Decode(key string, out any) (ok bool, err error) {
	if !c.isInitialized() {
		return false, ErrNotInitialized
	}
	raw, ok := c.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("configuration %q: %w", key, err)
	}
	return true, nil
}

// Keys returns every top-level key in ascending order.
func (c *Configuration) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.values))
}
