// Package steam wraps the two Steam endpoints the library needs: the Web API
// owned-games listing (used for sync) and the storefront appdetails lookup
// (used by enrichment).
package steam
