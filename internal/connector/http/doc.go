// Package http provides a generic HTTP base connector for REST API sources.
// It is the foundation of the SDMX REST connector.
//
// Structure:
//
//	client.go   - HTTP client with rate limiting and retry
//	auth.go     - Authentication strategies (Basic, Bearer, API key)
//	base.go     - Embeddable endpoint base with probing and raw fetches
//	metrics.go  - Prometheus request, latency and retry metrics
package http
