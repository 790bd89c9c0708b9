// Package logging wires log/slog with console and JSON handlers plus the
// typed attribute helpers used across cadenza.
package logging
