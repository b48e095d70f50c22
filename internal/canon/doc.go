// Package canon holds the pure normalization functions the library relies on
// for identity: title keys, platform triples, and release dates.
//
// Title is the only join key between storefronts. Changing its character
// classes or accent folding silently merges or splits catalog entries, so any
// change here needs a migration of stored normalized_title values.
package canon
