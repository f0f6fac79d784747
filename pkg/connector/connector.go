// Package connector registers the statistical connectors and exposes the
// registry to code outside this module.
package connector

import (
	"github.com/nucleus/sdmx-core/internal/endpoint"

	// Import all connectors to register them
	_ "github.com/nucleus/sdmx-core/internal/connector/sdmx"
)

// Source retrieves structure messages and datasets.
type Source = endpoint.StatisticalSource

// Templates lists the registered connector template IDs.
func Templates() []string {
	return endpoint.DefaultRegistry().List()
}

// NewSource instantiates a registered connector from registry-style settings,
// e.g. {"baseUrl": "...", "agencyId": "ESTAT", "token": "..."}.
func NewSource(templateID string, config map[string]any) (Source, error) {
	return endpoint.DefaultRegistry().CreateSource(templateID, config)
}
