// Package preflight provides readiness checks for the paths and storefront
// credentials gamelib depends on.
//
// The daemon runs the path checks at startup and logs failures. The CLI
// "check" command runs everything, including live storefront calls.
package preflight
