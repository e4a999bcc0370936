// Package main hosts the meetingassist CLI entrypoint and command graph.
//
// Each invocation opens the persisted workspace, runs one workflow gesture
// against the backend, prints the resulting status message, and saves the
// workspace again. Confirmation prompts are answered on the terminal; without
// a terminal they are declined unless --yes is given.
package main
