// Package enrichment fills in metadata that minimal storefront listings omit.
//
// A run selects every listing on a store whose game still carries the
// hydration sentinel category, then walks them one at a time: sleep a jittered
// interval, fetch catalog metadata, apply genre, release date and platform
// support, and emit an ItemHydrated event. A rate-limited fetch gets one
// cooldown and one retry. Item failures are logged and leave the sentinel in
// place so the next run picks the game up again.
package enrichment
