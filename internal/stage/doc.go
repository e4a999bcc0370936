// Package stage decides which workflow actions are legal for a meeting.
//
// Every function here is pure: given a Snapshot of a meeting's stage statuses,
// Check reports whether an action may run and, when it may not, which
// precondition failed. Gates default closed. A status the backend never sent,
// or one this client does not recognize, never satisfies a positive
// precondition.
package stage
