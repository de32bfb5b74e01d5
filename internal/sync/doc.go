package sync

// Package sync implements the crash-safe update engine. It reconciles the
// persisted collection state against a fresh remote listing, then executes
// the resulting plan in strict phases: best-effort additions, backup
// snapshot, removals, two-pass renames, atomic state commit, backup discard.
// Any failure inside the destructive window restores the directory from the
// snapshot, so the committed state never observes a partial update.
