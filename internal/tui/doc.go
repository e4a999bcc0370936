// Package tui implements the interactive meeting dashboard.
//
// The dashboard lists the selected client's meetings newest first with their
// stage statuses, refreshes them on an interval, and runs workflow actions on
// key presses. Confirmation prompts raised by an action are shown as a modal
// and answered from the keyboard.
package tui
