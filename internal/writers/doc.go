// Package writers serializes merged cell tables.
//
// Formats register themselves by name in init() blocks; callers go through
// Write so the CLI never switches on format strings. JSON and JSONL use the
// pkg/api (v1) schema.
package writers
