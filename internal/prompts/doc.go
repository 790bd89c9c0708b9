// Package prompts composes the ordered per-unit prompt plan for a
// composition, optionally consulting a creative text service with a bounded
// sliding-window context.
package prompts
