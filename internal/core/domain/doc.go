// Package domain contains the core business entities and domain errors for
// the retrieval engine: ingested documents and their chunks, operational
// table records, conversation messages, and the fused context block handed
// to the language model.
package domain
