//go:build !debug

// Package debug holds tracing helpers that are compiled in only when building
// with -tags debug.
package debug

func Printf(msg string, args ...any) {}

const On = false
