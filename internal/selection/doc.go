// Package selection keeps one client and one meeting selected while lists
// refresh.
//
// Refreshed lists preserve the current selection when it is still present and
// otherwise fall back to the first entry: clients in collated display-name
// order, meetings newest first. Any change that would drop a dirty draft goes
// through a Confirmer first; declining returns services.ErrDeclined and leaves
// the workspace untouched.
package selection
