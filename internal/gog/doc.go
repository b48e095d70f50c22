// Package gog reads the owned-products listing from embed.gog.com, either live
// with a session token or from a saved JSON export. Acquiring the token is the
// caller's job.
package gog
