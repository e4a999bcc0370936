// Package meeting holds the client-side mirror of the backend's clients and
// meetings.
//
// Status values arrive from the backend as loosely cased strings; the types in
// this package normalize them into closed enumerations the moment JSON is
// decoded so that every comparison downstream is exact. Unknown values collapse
// to UNKNOWN/NONE, which never satisfy a gate.
//
// The package also derives display-only data (meeting numbers, date labels)
// that the backend does not store.
package meeting
