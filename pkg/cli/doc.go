// Package cli provides shared helpers for Proxima's command-line
// interface: typed command errors and output formatting.
package cli
