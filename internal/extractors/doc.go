// Package extractors provides implementations of the Extractor
// interface for various document formats. Each extractor knows how to
// pull plain text out of a specific format.
//
// Extractors are registered with the Registry at startup; unknown
// formats fall back to a permissive raw-text decode.
package extractors
