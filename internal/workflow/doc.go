// Package workflow exposes one awaitable function per user gesture.
//
// Each Manager method runs the network calls of its gesture in a fixed order
// (gate check, request, poll until terminal, re-fetch) and applies results to
// the shared workspace.State only while the originating client and meeting are
// still selected. Errors are caught at the action boundary: they are recorded
// as the dismissible workspace status and returned so the CLI can exit
// non-zero. A failed save never clears a draft's dirty flag.
//
// Approving an already-approved resource is a no-op that sends no request.
// Revising deliverables uses the meeting-wide instructions variant.
package workflow
