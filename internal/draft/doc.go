// Package draft keeps locally edited copies of server resources.
//
// A Draft pairs the last value fetched from the server (the baseline) with the
// value being edited. Edit marks the draft dirty unconditionally, even when the
// patch happens to reproduce the baseline; Differs reports the structural
// comparison for callers that need it. Reconcile refuses to replace a dirty
// value and returns ErrConflict instead, leaving the decision to the caller.
//
// Set holds one content draft per (task index, language) key. Operations on
// one key never touch another.
package draft
