// Package ledger persists run history in SQLite so past compositions and
// their per-unit outcomes can be inspected after the fact.
package ledger
