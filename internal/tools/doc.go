// Package tools provides reusable runtime helpers shared by pipeline steps.
//
// Ownership boundary:
// - command execution helpers
//
// - host/runtime utility primitives
package tools
