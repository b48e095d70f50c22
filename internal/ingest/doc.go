// Package ingest drives storefront listings through canonicalization and
// reconciliation.
//
// ProcessBatch is sequential and item-isolated: each listing is resolved to
// its canonical game, then its store listing is upserted. A failing listing is
// logged and counted without aborting the batch. Sync wraps ProcessBatch with
// a Source fetch and optionally kicks off detached enrichment.
package ingest
