// Package workflow supervises a composition run end to end: per-unit clip
// sessions in strict order, the prompt log, and final assembly.
package workflow
