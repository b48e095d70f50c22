// Package daemonctl starts, stops, and inspects a gamelib daemon from the CLI
// through its HTTP API and pid file.
package daemonctl
