package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ConventionKey names one entry of the naming convention document.
type ConventionKey string

const (
	ElementDefinitionName ConventionKey = "ElementDefinitionName"
	ElementUsageName      ConventionKey = "ElementUsageName"
	ParameterTypeShape    ConventionKey = "ParameterTypeShape"
	ParameterTypePosition ConventionKey = "ParameterTypePosition"
	ParameterTypeRotation ConventionKey = "ParameterTypeRotation"
	ParameterTypeSize     ConventionKey = "ParameterTypeSize"
	ScenePrefix           ConventionKey = "ScenePrefix"
)

var defaultConventions = map[ConventionKey]string{
	ElementDefinitionName: "ElementDefinition",
	ElementUsageName:      "ElementUsage",
	ParameterTypeShape:    "kind",
	ParameterTypePosition: "coordinates",
	ParameterTypeRotation: "orientation",
	ParameterTypeSize:     "dimensions",
	ScenePrefix:           "scene",
}

// NamingConvention maps convention keys to names, built-in defaults overlaid by the document.
type NamingConvention struct {
	loader
	names map[ConventionKey]string
}

// NewNamingConvention returns a convention holding only the defaults.
func NewNamingConvention(location string, client *http.Client, log *zap.Logger) *NamingConvention {
	names := make(map[ConventionKey]string, len(defaultConventions))
	for k, v := range defaultConventions {
		names[k] = v
	}
	return &NamingConvention{loader: newLoader(location, client, log, "naming"), names: names}
}

// Initialize overlays the document's entries on the defaults.
func (n *NamingConvention) Initialize(ctx context.Context) error {
	return n.initialize(ctx, func(data []byte) error {
		var doc map[ConventionKey]string
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("naming: %w", err)
		}
		for k, v := range doc {
			n.names[k] = v
		}
		return nil
	})
}

// Initialized reports whether the document has been applied.
func (n *NamingConvention) Initialized() bool {
	return n.isInitialized()
}

// Name returns the configured name for key, or string(key) when unknown.
func (n *NamingConvention) Name(key ConventionKey) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if v, ok := n.names[key]; ok {
		return v
	}
	return string(key)
}
