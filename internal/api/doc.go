// Package api serves the library over HTTP with gin.
//
// # Routes
//
//	GET    /api/status             daemon state, database path, active enrichment runs
//	GET    /api/stats              per-store counts, total, duplicates
//	GET    /api/games              every game with listings (?duplicates=true filters)
//	POST   /api/sync/:store        fetch from the configured storefront and reconcile
//	POST   /api/batch/:store       reconcile a JSON array of raw listings
//	POST   /api/enrich/:store      start a detached enrichment run (409 if running)
//	DELETE /api/enrich/:store      cancel the active run
//	GET    /api/events             long-poll the event hub (?since=&limit=&follow=)
//	GET    /api/events/ws          websocket stream of hub events
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Errors are answered as {"error", "requestId"}
// with the status derived from the services error markers. Every request gets
// an X-Request-ID that is also attached to the request context for logging.
// When a token is configured, every /api route requires
// "Authorization: Bearer <token>".
package api
