// Package workspace holds the client-side session: client and meeting lists,
// the active selection, task and content drafts, revision instructions, and
// the last status message.
//
// State is the injectable in-memory container. Its methods are safe for
// concurrent use and never perform I/O, so a running action and the dashboard
// refresh can interleave. Two-phase methods (BeginTaskSave/FinishTaskSave,
// BeginContentLoad/FinishContentLoad) let callers release the lock during a
// request and drop the result if the selection changed meanwhile.
//
// Session persists State between CLI invocations in a SQLite database and
// serializes invocations with a gofrs/flock lock file.
package workspace
