// Package patch computes, serializes, and applies line-oriented patches.
//
// The package is extracted from tandem's internal editing pipeline so that it
// can be reused by other tools. It exposes a linear-space Myers differ over
// line sequences, a builder that compresses edit scripts into positional
// hunks, a JSON codec with schema validation for persistence and transport,
// and an applier that reconstructs the target sequence from the original plus
// a patch set. The applier guarantees an exact round trip: applying
// Create(a, b) to a yields b, line for line.
package patch
