// Package core provides the shared SDMX data models used across sdmx-core.
// These models are read-only views produced by connectors and consumed by the
// structure, selection, summary, labels and reconcile packages.
//
// Structure:
//
//	structure.go  - Role, Code, Codelist, Component, DataStructure, Dataflow
//	message.go    - StructureMessage and artefact resolution
//	table.go      - Table (observation rows) and Dataset
//	query.go      - DataQuery for dataset retrieval
//	errors.go     - Coded errors shared by all packages
package core
