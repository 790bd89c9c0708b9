// Package preflight validates a run's external dependencies before any unit
// is dispatched: backend reachability, directory access, the assembly binary,
// and the creative service when the strategy needs it.
package preflight
