// Package proc runs the external programs the announcement pipeline is built
// from and reports their exit status.
package proc
