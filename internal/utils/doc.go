// Package utils holds small helpers shared by the providers: a JSON POST
// round-trip for service adapters, rune-safe truncation for log previews,
// a wall-clock timer and a pointer helper.
package utils
