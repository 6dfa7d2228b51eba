// Package extractors provides implementations of the Extractor interface
// for supported document formats. Each extractor knows how to pull text
// segments out of a specific MIME type.
//
// Extractors are registered with the ExtractorRegistry at startup.
package extractors
