// Package events carries typed sync and enrichment progress to consumers.
//
// Hub keeps a bounded ring of recent events with monotonically increasing
// sequence numbers. Consumers either long-poll with Fetch (resuming from the
// last sequence they saw) or Subscribe for push delivery; subscribers that
// fall behind drop events instead of stalling the publisher.
package events
