// Package sdmx implements an SDMX 2.1 REST connector.
//
// Structure:
//
//	types.go      - Connection configuration and defaults (Eurostat)
//	urls.go       - Structure and data query paths
//	structure.go  - SDMX-ML 2.1 structure message parsing
//	csv.go        - SDMX-CSV data parsing
//	sdmx.go       - Connector implementing the endpoint contracts
//	register.go   - Registry factory ("http.sdmx")
package sdmx
