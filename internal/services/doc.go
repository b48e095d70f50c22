// Package services defines shared utilities consumed by the sync, enrichment
// and API layers.
//
// Key responsibilities:
//   - Context helpers that stamp the storefront, run IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and HTTPStatus which maps
//     those markers onto API responses.
package services
