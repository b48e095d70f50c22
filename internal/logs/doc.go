// Package logs locates daemon log files and tails them for the CLI.
//
// Reads are bounded: Last keeps only the requested number of lines in memory
// and Follow polls from a byte offset until its context ends.
package logs
