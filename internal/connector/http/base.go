package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nucleus/sdmx-core/internal/endpoint"
)

// =============================================================================
// BASE HTTP ENDPOINT
// Provides common HTTP functionality for REST connectors.
// =============================================================================

// Base provides common HTTP endpoint functionality.
// Embed this in REST connectors such as SDMX.
type Base struct {
	// Client is the HTTP client for making requests.
	Client *Client

	// EndpointID is the unique identifier for this endpoint.
	EndpointID string

	// EndpointName is the display name.
	EndpointName string

	// Vendor is the vendor name (e.g., "Eurostat").
	Vendor string

	// Version is the detected API version.
	Version string
}

// NewBase creates a new HTTP base with the given configuration.
func NewBase(id, name, vendor string, config *ClientConfig) *Base {
	return &Base{
		Client:       NewClient(config),
		EndpointID:   id,
		EndpointName: name,
		Vendor:       vendor,
	}
}

// ID returns the endpoint identifier.
func (b *Base) ID() string {
	return b.EndpointID
}

// Close closes the HTTP client.
func (b *Base) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// GetCapabilities returns default HTTP source capabilities.
// Override in concrete implementations for specific capabilities.
func (b *Base) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:     true,
		SupportsPreview:  true,
		SupportsMetadata: true,
		DefaultFetchSize: 100,
	}
}

// GetDescriptor returns the endpoint descriptor.
// Override in concrete implementations.
func (b *Base) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:     b.EndpointID,
		Family: "http.rest",
		Title:  b.EndpointName,
		Vendor: b.Vendor,
	}
}

// ProbeConnection tests the connection by making a probe request.
// HTTP failures are reported as an invalid result, not an error.
func (b *Base) ProbeConnection(ctx context.Context, probePath string, query url.Values, accept string) (*endpoint.ValidationResult, error) {
	_, err := b.FetchBytes(ctx, probePath, query, accept)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return &endpoint.ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	return &endpoint.ValidationResult{
		Valid:           true,
		Message:         "Connection successful",
		DetectedVersion: b.Version,
	}, nil
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// FetchBytes performs a GET and returns the raw body. accept, when set,
// becomes the Accept header.
func (b *Base) FetchBytes(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	}
	if accept != "" {
		req.Headers = map[string]string{"Accept": accept}
	}
	resp, err := b.Client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
