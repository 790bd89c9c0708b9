// Package llm provides the OpenRouter-backed creative text client used by
// the AI prompt strategies.
package llm
