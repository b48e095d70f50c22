// Package library persists the canonical game catalog in SQLite.
//
// A Game is keyed by the normalized title produced by canon.Title; the UNIQUE
// constraint on that column is the only guard against two concurrent syncs
// creating the same game, so FindOrCreateGame treats a constraint violation as
// "someone else won" and re-reads the row. Each storefront contributes at most
// one StoreListing per game, enforced by UNIQUE(game_id, store_name).
//
// Every mutation is a single statement. No transaction spans a batch, so
// partial progress survives a later failure. SQLITE_BUSY errors are retried
// with a short exponential backoff.
package library
