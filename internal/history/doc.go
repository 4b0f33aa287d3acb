// Package history persists the continuity store: the append-only ledger of
// episode records, completed and failed, backed by SQLite.
//
// Records are ordered by insertion. Load returns them most-recent-last and
// Append writes one record in a single transaction, so an interrupted run
// never leaves a half-written record behind. A partial unique index keeps
// completed episode numbers unique while allowing repeated failed attempts at
// the same number.
package history
