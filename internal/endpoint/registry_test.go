package endpoint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus/sdmx-core/internal/endpoint"
)

// =============================================================================
// REGISTRY TESTS
// These tests use ONLY endpoint interfaces, no connector types.
// =============================================================================

type stubEndpoint struct {
	id     string
	closed bool
}

func (s *stubEndpoint) ID() string { return s.id }
func (s *stubEndpoint) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	return &endpoint.ValidationResult{Valid: true}, nil
}
func (s *stubEndpoint) GetCapabilities() *endpoint.Capabilities { return &endpoint.Capabilities{} }
func (s *stubEndpoint) GetDescriptor() *endpoint.Descriptor { return &endpoint.Descriptor{ID: s.id} }
func (s *stubEndpoint) Close() error { s.closed = true; return nil }

func TestRegistry_RegisterAndCreate(t *testing.T) {
	registry := endpoint.NewRegistry()
	registry.Register("http.b", func(config map[string]any) (endpoint.Endpoint, error) {
		return &stubEndpoint{id: "http.b"}, nil
	})
	registry.Register("http.a", func(config map[string]any) (endpoint.Endpoint, error) {
		return &stubEndpoint{id: "http.a"}, nil
	})

	assert.Equal(t, []string{"http.a", "http.b"}, registry.List())

	ep, err := registry.Create("http.a", nil)
	require.NoError(t, err)
	assert.Equal(t, "http.a", ep.ID())

	_, err = registry.Create("http.missing", nil)
	assert.Error(t, err)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	registry := endpoint.NewRegistry()
	factory := func(config map[string]any) (endpoint.Endpoint, error) { return &stubEndpoint{}, nil }
	registry.Register("http.x", factory)

	assert.Panics(t, func() { registry.Register("http.x", factory) })
}

func TestRegistry_CreateSourceRequiresStatisticalServices(t *testing.T) {
	stub := &stubEndpoint{id: "http.plain"}
	registry := endpoint.NewRegistry()
	registry.Register("http.plain", func(config map[string]any) (endpoint.Endpoint, error) {
		return stub, nil
	})

	_, err := registry.CreateSource("http.plain", nil)
	assert.Error(t, err)
	assert.True(t, stub.closed)
}

func TestSliceIterator(t *testing.T) {
	it := endpoint.NewSliceIterator([]endpoint.Record{{"a": 1}, {"a": 2}, {"a": 3}}, 2)
	defer it.Close()

	var got []any
	for it.Next() {
		got = append(got, it.Value()["a"])
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []any{1, 2}, got)

	unlimited := endpoint.NewSliceIterator([]int{7, 8}, 0)
	count := 0
	for unlimited.Next() {
		count++
	}
	assert.Equal(t, 2, count)
	assert.Equal(t, 8, unlimited.Value())
}
