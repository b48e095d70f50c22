// Package daemonrun is the process entry point shared by gamelibd and
// "gamelib serve": it builds the logger, opens the library, wires sync,
// enrichment, notifications and the API, and runs until a signal arrives.
package daemonrun
