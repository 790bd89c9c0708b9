// Package clip runs the per-unit generation session: submit once, then watch
// both the event stream and the filesystem until the unit reaches a terminal
// state or its wall-clock ceiling.
package clip
