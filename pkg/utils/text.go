// Package utils holds small text, math, and logging helpers shared across
// the module.
package utils

// Truncate cuts s at maxLen bytes and appends "..." when it was cut.
// A maxLen of zero or less returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
