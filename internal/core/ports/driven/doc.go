// Package driven defines the interfaces the core consumes: the
// content source, the document store, the extractor registry and the
// persisted-state store. Adapters under internal/adapters and
// internal/connectors implement these.
//
// Driven ports follow the dependency inversion principle: the core
// defines what it needs, the adapters conform.
package driven
